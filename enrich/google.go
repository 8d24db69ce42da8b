package enrich

import (
	"context"
	"fmt"
	"net/url"
)

// Google links to a search results page for the query. It performs no
// network call and always finds something.
type Google struct {
	base string
}

func NewGoogle() *Google {
	return &Google{base: "https://www.google.com/search?q="}
}

func (g *Google) Name() string {
	return "google"
}

func (g *Google) Heading() string {
	return "Google Search Results"
}

func (g *Google) Describe(ref *Reference) string {
	if ref == nil {
		return "No relevant Google result found."
	}
	return fmt.Sprintf("Google: %s - %s", ref.Title, ref.URL)
}

func (g *Google) Lookup(_ context.Context, query string) (*Reference, bool) {
	return &Reference{Title: "Google Search", URL: g.base + url.QueryEscape(query)}, true
}
