package extract

import (
	"net/url"

	"apidiff/internal/models"
)

var authHeaderNames = []string{"access-token", "authorization"}

// Metadata describes one captured run: the dominant base URL and the
// dominant auth token across its requests. Tokens are carried opaquely;
// nothing validates them.
type Metadata struct {
	BaseURL   string `json:"base_url,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
}

// CollectMetadata picks the most frequent scheme://host and auth header
// value. Ties go to the first one seen, keeping the result deterministic.
func CollectMetadata(records []models.RequestRecord) Metadata {
	var meta Metadata

	baseCounts := map[string]int{}
	var baseOrder []string
	for _, r := range records {
		u, err := url.Parse(r.FullURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		base := u.Scheme + "://" + u.Host
		if baseCounts[base] == 0 {
			baseOrder = append(baseOrder, base)
		}
		baseCounts[base]++
	}
	meta.BaseURL = mostFrequent(baseOrder, baseCounts)

	tokenCounts := map[string]int{}
	var tokenOrder []string
	for _, r := range records {
		for _, name := range authHeaderNames {
			token, ok := r.HeaderValue(name)
			if !ok || token == "" {
				continue
			}
			if tokenCounts[token] == 0 {
				tokenOrder = append(tokenOrder, token)
			}
			tokenCounts[token]++
			break
		}
	}
	meta.AuthToken = mostFrequent(tokenOrder, tokenCounts)

	return meta
}

func mostFrequent(order []string, counts map[string]int) string {
	best := ""
	bestCount := 0
	for _, k := range order {
		if counts[k] > bestCount {
			best = k
			bestCount = counts[k]
		}
	}

	return best
}
