package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/hubenschmidt/go-mfginsight/store"
)

const (
	cellStyle = "border:1px solid #ddd;padding:8px;color:#000;"
	headerBg  = "#f2f2f2"
	evenBg    = "#ffffff"
	oddBg     = "#f9f9f9"
)

type HTML struct{}

// SQLReport renders the summary, a metrics block and the result table.
func (HTML) SQLReport(answer string, rows []store.Row, m Metrics) string {
	var b strings.Builder
	b.WriteString("<div style='margin-bottom:24px;'><b>Summary Report:</b><br>")
	b.WriteString("<div style='white-space:pre-line;margin-top:8px;margin-bottom:16px;'>")
	b.WriteString(Bullets(strings.TrimSpace(answer)))
	b.WriteString("</div></div>")
	b.WriteString(MetricsHTML(m))
	b.WriteString("<div><b>Query Results:</b><br>")
	b.WriteString(TableHTML(rows))
	b.WriteString("</div>")
	return b.String()
}

func (HTML) FallbackReport(answer string) string {
	return Bullets(answer)
}

func MetricsHTML(m Metrics) string {
	return fmt.Sprintf(`
<div style='margin:16px 0;padding:12px;background:#f8f8ff;border:1px solid #bdbdbd;border-radius:8px;'>
  <div style='text-align:center;margin-bottom:12px;'>
    <h4 style='margin:0;color:#222;font-weight:bold;font-size:1.1em;'>RAG METRICS</h4>
  </div>
  <div style='display:flex;justify-content:space-between;align-items:center;flex-wrap:wrap;gap:12px;'>
    <div style='color:#222;font-weight:bold;'>Confidence: <span style='color:#4CAF50;'>%.1f%%</span></div>
    <div style='color:#222;font-weight:bold;'>Retrieved Rows: <span style='color:#FF9800;'>%d</span></div>
    <div style='color:#222;font-weight:bold;'>Latency: <span style='color:#2196F3;'>%.2fs</span></div>
  </div>
</div>
`, m.Confidence*100, m.Rows, m.Latency.Seconds())
}

// TableHTML renders rows with a shaded header and alternating row colours.
// Column order follows the first row. Cell text is escaped.
func TableHTML(rows []store.Row) string {
	if len(rows) == 0 {
		return "<div>No results found.</div>"
	}
	cols := headers(rows)

	lines := make([]string, 0, len(rows)+4)
	lines = append(lines, `<table style="border-collapse:collapse;width:100%;">`)

	var head strings.Builder
	fmt.Fprintf(&head, `<thead><tr style="background-color:%s; color:#000;">`, headerBg)
	for _, c := range cols {
		fmt.Fprintf(&head, `<th style="%s">%s</th>`, cellStyle, html.EscapeString(c))
	}
	head.WriteString("</tr></thead>")
	lines = append(lines, head.String(), "<tbody>")

	for i, r := range rows {
		bg := evenBg
		if i%2 == 1 {
			bg = oddBg
		}
		var row strings.Builder
		fmt.Fprintf(&row, `<tr style="background-color:%s; color:#000;">`, bg)
		for _, c := range cols {
			fmt.Fprintf(&row, `<td style="%s">%s</td>`, cellStyle, html.EscapeString(cell(r, c)))
		}
		row.WriteString("</tr>")
		lines = append(lines, row.String())
	}
	lines = append(lines, "</tbody></table>")
	return strings.Join(lines, "\n")
}
