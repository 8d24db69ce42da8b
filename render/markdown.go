package render

import (
	"fmt"
	"strings"

	"github.com/hubenschmidt/go-mfginsight/store"
)

type Markdown struct{}

func (Markdown) SQLReport(answer string, rows []store.Row, m Metrics) string {
	var b strings.Builder
	b.WriteString("**Summary Report:**\n\n")
	b.WriteString(Bullets(strings.TrimSpace(answer)))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**RAG METRICS** Confidence: %.1f%% | Retrieved Rows: %d | Latency: %.2fs\n\n",
		m.Confidence*100, m.Rows, m.Latency.Seconds())
	b.WriteString("**Query Results:**\n\n")
	b.WriteString(TableMarkdown(rows))
	return b.String()
}

func (Markdown) FallbackReport(answer string) string {
	return Bullets(answer)
}

func TableMarkdown(rows []store.Row) string {
	if len(rows) == 0 {
		return "No results found."
	}
	cols := headers(rows)

	sep := make([]string, len(cols))
	for i := range sep {
		sep[i] = "---"
	}
	lines := []string{
		"| " + strings.Join(cols, " | ") + " |",
		"| " + strings.Join(sep, " | ") + " |",
	}
	for _, r := range rows {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = cell(r, c)
		}
		lines = append(lines, "| "+strings.Join(vals, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}
