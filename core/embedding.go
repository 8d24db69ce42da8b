package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseEmbedding converts the pgvector text form "[0.1,0.2,0.3]" to a float
// slice. Unlike a lenient scan, any malformed component is an error.
func ParseEmbedding(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("parse embedding: missing brackets in %q", truncate(s, 32))
	}
	s = strings.TrimSpace(s[1 : len(s)-1])
	if s == "" {
		return nil, fmt.Errorf("parse embedding: empty vector")
	}

	parts := strings.Split(s, ",")
	result := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse embedding component %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("parse embedding component %d: non-finite value %q", i, strings.TrimSpace(p))
		}
		result[i] = v
	}
	return result, nil
}

// FormatEmbedding converts a float slice to pgvector text form.
func FormatEmbedding(embedding []float64) string {
	if len(embedding) == 0 {
		return ""
	}

	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
