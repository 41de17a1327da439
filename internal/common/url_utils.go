package common

// URL utilities for source adapter configuration validation.

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
)

// ValidateBaseURL validates a source adapter base URL and detects test URL
// patterns so local/dev endpoints aren't accidentally scraped in production.
// Returns: (isValid, isTestURL, warnings, err).
func ValidateBaseURL(baseURL string, logger arbor.ILogger) (bool, bool, []string, error) {
	warnings := []string{}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return false, false, warnings, fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, false, warnings, fmt.Errorf("invalid URL scheme: %s (expected http or https)", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return false, false, warnings, fmt.Errorf("URL host is empty")
	}

	isTestURL := false
	host := strings.ToLower(parsedURL.Host)

	if strings.HasPrefix(host, "localhost") {
		isTestURL = true
		warnings = append(warnings, fmt.Sprintf("Test URL detected: %s uses localhost", baseURL))
	}
	if strings.HasPrefix(host, "127.0.0.1") {
		isTestURL = true
		warnings = append(warnings, fmt.Sprintf("Test URL detected: %s uses 127.0.0.1", baseURL))
	}
	if strings.HasPrefix(host, "0.0.0.0") {
		isTestURL = true
		warnings = append(warnings, fmt.Sprintf("Test URL detected: %s uses 0.0.0.0", baseURL))
	}
	if strings.HasPrefix(host, "[::1]") {
		isTestURL = true
		warnings = append(warnings, fmt.Sprintf("Test URL detected: %s uses IPv6 localhost [::1]", baseURL))
	}

	if isTestURL {
		logger.Debug().
			Str("base_url", baseURL).
			Strs("warnings", warnings).
			Msg("Base URL validation: test URL detected")
	} else {
		logger.Debug().
			Str("base_url", baseURL).
			Msg("Base URL validation: production URL")
	}

	return true, isTestURL, warnings, nil
}
