package matcher

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// Matcher implements interfaces.Matcher (spec §4.6): embeds the user's
// profile/CV text once, scores every candidate job by cosine similarity
// plus a deterministic title boost, and returns the ranked, thresholded,
// tie-broken top-N.
type Matcher struct {
	embeddings interfaces.EmbeddingService
	cfg        *common.MatcherConfig
	logger     arbor.ILogger
}

func NewMatcher(embeddings interfaces.EmbeddingService, cfg *common.MatcherConfig, logger arbor.ILogger) interfaces.Matcher {
	return &Matcher{embeddings: embeddings, cfg: cfg, logger: logger}
}

// Match returns an empty, non-error result whenever the embedding provider
// is unavailable or the profile/CV yields no usable text, consistent with
// the Matcher's graceful-degradation contract (spec §4.6).
func (m *Matcher) Match(ctx context.Context, candidate *interfaces.CandidateProfile, candidates []models.Job, topN int) ([]models.Recommendation, error) {
	if candidate == nil || candidate.Profile == nil || !m.embeddings.IsAvailable(ctx) {
		return nil, nil
	}
	profile := candidate.Profile

	if strings.TrimSpace(candidate.SourceText) == "" {
		return nil, nil
	}

	userEmbedding, err := m.embeddings.Embed(ctx, candidate.SourceText)
	if err != nil {
		m.logger.Warn().Err(err).Str("user_id", profile.UserID).Msg("failed to embed user text, skipping user for this regeneration")
		return nil, nil
	}

	titleTokens := significantTokens(profile.PrimaryTitle, profile.SecondaryTitle)
	primaryCanonical := canonicalizeTitle(profile.PrimaryTitle)
	secondaryCanonical := canonicalizeTitle(profile.SecondaryTitle)

	// Per-batch embedding cache keyed by content hash (spec §4.6), so two
	// candidates sharing identical (title+description) text cost one call.
	cache := make(map[string][]float32)

	type scored struct {
		job   models.Job
		score float64
	}
	results := make([]scored, 0, len(candidates))

	for _, job := range candidates {
		content := job.CanonicalTitle + "\n" + job.Description
		key := cacheKey(content)

		jobEmbedding, ok := cache[key]
		if !ok {
			emb, err := m.embeddings.Embed(ctx, content)
			if err != nil {
				continue // malformed/upstream failure: drop this candidate, continue the batch
			}
			cache[key] = emb
			jobEmbedding = emb
		}

		score := cosineSimilarity(userEmbedding, jobEmbedding)
		score = rescale(score)
		score += titleBoost(job.CanonicalTitle, titleTokens, primaryCanonical, secondaryCanonical, m.cfg)
		if score > 1.0 {
			score = 1.0
		}

		if score < m.cfg.MinMatchScore {
			continue
		}

		results = append(results, scored{job: job, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		if !results[i].job.ScrapedAt.Equal(results[j].job.ScrapedAt) {
			return results[i].job.ScrapedAt.After(results[j].job.ScrapedAt)
		}
		return results[i].job.ID < results[j].job.ID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	now := time.Now().UTC()
	recs := make([]models.Recommendation, 0, len(results))
	for _, r := range results {
		recs = append(recs, models.Recommendation{
			UserID:     profile.UserID,
			JobID:      r.job.ID,
			MatchScore: r.score,
			Reason:     buildReason(r.job, titleTokens),
			CreatedAt:  now,
		})
	}

	return recs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rescale maps cosine similarity [-1,1] into [0,1].
func rescale(cosine float64) float64 {
	return (cosine + 1) / 2
}

func canonicalizeTitle(s string) string {
	return strings.Join(tokenRe.FindAllString(strings.ToLower(s), -1), " ")
}

func significantTokens(titles ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range titles {
		for _, tok := range tokenRe.FindAllString(strings.ToLower(t), -1) {
			if len(tok) < 3 || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// titleBoost applies the deterministic, non-embedding signal from spec
// §4.6: +0.40 for an exact (token-boundary) primary/secondary title match,
// else +0.30 for any individual significant token matching.
func titleBoost(jobCanonicalTitle string, titleTokens []string, primaryCanonical, secondaryCanonical string, cfg *common.MatcherConfig) float64 {
	jobTokens := " " + jobCanonicalTitle + " "

	if primaryCanonical != "" && strings.Contains(jobTokens, " "+primaryCanonical+" ") {
		return cfg.TitleBoostExact
	}
	if secondaryCanonical != "" && strings.Contains(jobTokens, " "+secondaryCanonical+" ") {
		return cfg.TitleBoostExact
	}

	for _, tok := range titleTokens {
		if strings.Contains(jobTokens, " "+tok+" ") {
			return cfg.TitleBoostPartial
		}
	}

	return 0
}

func buildReason(job models.Job, titleTokens []string) string {
	for _, tok := range titleTokens {
		if strings.Contains(" "+job.CanonicalTitle+" ", " "+tok+" ") {
			return fmt.Sprintf("title matches %q", tok)
		}
	}
	return "profile/skills similarity"
}

// cacheKey hashes candidate text so the per-batch embedding cache (spec
// §4.6) stays O(1)-sized per unique (title+description) pair.
func cacheKey(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}
