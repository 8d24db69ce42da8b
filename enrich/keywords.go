package enrich

import (
	"fmt"
	"strings"
)

var manufacturingTerms = []string{
	"manufacturing", "production", "assembly", "machining", "welding", "casting",
	"maintenance", "repair", "inspection", "quality", "efficiency", "productivity",
	"automation", "robotics", "cnc", "machinery", "equipment", "tools", "materials",
	"process", "operation", "system", "performance", "optimization", "improvement",
	"failure", "breakdown", "downtime", "uptime", "reliability", "safety",
	"industrial", "factory", "plant", "facility", "workshop", "production line",
}

// Trigger words add fixed context phrases, in this order.
var contextRules = []struct {
	triggers  []string
	additions []string
}{
	{
		triggers:  []string{"event", "incident", "problem", "issue"},
		additions: []string{"manufacturing incident", "industrial safety", "equipment failure"},
	},
	{
		triggers:  []string{"similar", "compare", "pattern"},
		additions: []string{"manufacturing patterns", "industrial analytics", "predictive maintenance"},
	},
	{
		triggers:  []string{"machine", "equipment", "device"},
		additions: []string{"industrial machinery", "manufacturing equipment", "machine maintenance"},
	},
	{
		triggers:  []string{"city", "location", "facility"},
		additions: []string{"manufacturing facility", "industrial plant", "factory management"},
	},
}

// manufacturingIndicators mark a search hit as on-topic.
var manufacturingIndicators = []string{
	"manufacturing", "industrial", "factory", "production", "machinery",
	"equipment", "maintenance", "automation", "process", "quality",
	"safety", "efficiency", "productivity", "machining", "assembly",
}

// ExtractKeywords returns manufacturing terms found as substrings of the
// question, followed by context phrases triggered by its wording.
func ExtractKeywords(question string) []string {
	q := strings.ToLower(question)

	var found []string
	for _, term := range manufacturingTerms {
		if strings.Contains(q, term) {
			found = append(found, term)
		}
	}

	for _, rule := range contextRules {
		if containsAny(q, rule.triggers) {
			found = append(found, rule.additions...)
		}
	}
	return found
}

// SearchTerms lists the queries tried in order: the question itself, then
// manufacturing and industrial variants and the top three keyword variants
// when the question has any keywords.
func SearchTerms(query string) []string {
	terms := []string{query}

	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return terms
	}

	terms = append(terms, fmt.Sprintf("%s manufacturing", query), fmt.Sprintf("%s industrial", query))
	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	for _, kw := range keywords {
		terms = append(terms, fmt.Sprintf("%s %s", kw, query))
	}
	return terms
}

func isManufacturingRelated(title, snippet string) bool {
	title = strings.ToLower(title)
	snippet = strings.ToLower(snippet)
	return containsAny(title, manufacturingIndicators) || containsAny(snippet, manufacturingIndicators)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
