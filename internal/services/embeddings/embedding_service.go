package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
)

// Service implements interfaces.EmbeddingService against an OpenAI-compatible
// embeddings endpoint. The Matcher (spec §4.6) is the sole consumer; when the
// endpoint is unreachable or unconfigured, IsAvailable reports false and
// callers are expected to degrade gracefully rather than fail the run.
type Service struct {
	baseURL   string
	apiKey    string
	modelName string
	logger    arbor.ILogger
	client    *http.Client
}

// NewService builds an embedding client from configuration. A blank BaseURL
// produces a service that is always unavailable, matching spec.md's
// "embedding provider as capability" resolution (see DESIGN.md).
func NewService(cfg *common.EmbeddingConfig, logger arbor.ILogger) interfaces.EmbeddingService {
	timeout := 15 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			timeout = d
		}
	}

	return &Service{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		modelName: cfg.Model,
		logger:    logger,
		client:    &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed generates a vector embedding for text via the configured provider.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("embedding service not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	reqBody := embeddingRequest{Model: s.modelName, Input: text}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding provider returned status %d", resp.StatusCode)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}

	s.logger.Debug().
		Int("dimension", len(result.Data[0].Embedding)).
		Int("text_length", len(text)).
		Msg("generated embedding")

	return result.Data[0].Embedding, nil
}

// IsAvailable reports whether the embedding provider is configured and
// reachable. Called once per recommendation regeneration run (spec §4.7),
// not per job, to avoid a network round trip per candidate.
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.baseURL == "" {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Msg("embedding provider not reachable")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
