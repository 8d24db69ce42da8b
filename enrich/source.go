// Package enrich looks up external references that give the fallback
// analysis prompt some industry context. Lookups never fail outward: an
// error or an empty search is reported as "not found".
package enrich

import "context"

// Reference is a single external hit.
type Reference struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Context string `json:"context,omitempty"`
}

// Source is one external knowledge provider.
type Source interface {
	Name() string
	// Heading labels the source in an analysis prompt.
	Heading() string
	// Describe renders a hit, or the not-found line when ref is nil.
	Describe(ref *Reference) string
	Lookup(ctx context.Context, query string) (*Reference, bool)
}
