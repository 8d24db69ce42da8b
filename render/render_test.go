package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubenschmidt/go-mfginsight/store"
)

func rows() []store.Row {
	return []store.Row{
		{Columns: []string{"event_type", "count"}, Values: []any{"Jam", int64(3)}},
		{Columns: []string{"event_type", "count"}, Values: []any{"Over<heat>", int64(1)}},
		{Columns: []string{"event_type", "count"}, Values: []any{nil, int64(0)}},
	}
}

func TestBullets(t *testing.T) {
	in := "# Executive Summary\n  * first\n+ second\n- dash stays\n#no-space stays\n**bold** stays"
	want := "• Executive Summary\n• first\n• second\n- dash stays\n#no-space stays\n**bold** stays"
	assert.Equal(t, want, Bullets(in))
}

func TestTableHTML(t *testing.T) {
	assert.Equal(t, "<div>No results found.</div>", TableHTML(nil))

	out := TableHTML(rows())
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 7)
	assert.Contains(t, lines[1], "background-color:#f2f2f2")
	assert.Contains(t, lines[1], ">event_type</th>")
	assert.Contains(t, lines[3], "background-color:#ffffff")
	assert.Contains(t, lines[4], "background-color:#f9f9f9")
	assert.Contains(t, lines[4], "Over&lt;heat&gt;")
	assert.Contains(t, lines[5], "background-color:#ffffff")
	assert.Equal(t, "</tbody></table>", lines[6])
}

func TestTableMarkdown(t *testing.T) {
	assert.Equal(t, "No results found.", TableMarkdown(nil))
	want := "| event_type | count |\n| --- | --- |\n| Jam | 3 |\n| Over<heat> | 1 |\n|  | 0 |"
	assert.Equal(t, want, TableMarkdown(rows()))
}

func TestHTMLReports(t *testing.T) {
	m := Metrics{Confidence: 0.95, Rows: 3, Latency: 1234 * time.Millisecond}
	out := HTML{}.SQLReport("\n* one\n", rows(), m)

	assert.True(t, strings.HasPrefix(out, "<div style='margin-bottom:24px;'><b>Summary Report:</b><br>"))
	assert.Contains(t, out, "• one</div></div>")
	assert.Contains(t, out, "RAG METRICS")
	assert.Contains(t, out, ">95.0%</span>")
	assert.Contains(t, out, ">3</span>")
	assert.Contains(t, out, ">1.23s</span>")
	assert.True(t, strings.HasSuffix(out, "</tbody></table></div>"))

	assert.Equal(t, "• a\nb", HTML{}.FallbackReport("* a\nb"))
}

func TestMarkdownReport(t *testing.T) {
	out := Markdown{}.SQLReport("+ x", nil, Metrics{Confidence: 0.95, Latency: time.Second})
	assert.Contains(t, out, "• x")
	assert.Contains(t, out, "Confidence: 95.0% | Retrieved Rows: 0 | Latency: 1.00s")
	assert.True(t, strings.HasSuffix(out, "No results found."))
}
