// Package render formats analysis answers for display. HTML is what the
// browser UI shows; Markdown suits terminals.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hubenschmidt/go-mfginsight/store"
)

const Bullet = "• "

var bulletMarker = regexp.MustCompile(`^\s*[#*+]\s+`)

// Metrics is the retrieval summary shown under a SQL-backed answer.
type Metrics struct {
	Confidence float64
	Rows       int
	Latency    time.Duration
}

// Bullets replaces a leading "#", "*" or "+" marker on each line with a
// bullet character.
func Bullets(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = bulletMarker.ReplaceAllLiteralString(line, Bullet)
	}
	return strings.Join(lines, "\n")
}

func headers(rows []store.Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Columns
}

func cell(r store.Row, col string) string {
	v, ok := r.Get(col)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
