package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Segment is one typed part of a message body.
type Segment struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

func TextSegment(text string) Segment {
	return Segment{Type: "text", Text: &text}
}

// Content is a message body. Providers answer either with a plain string or
// with an ordered list of typed segments; both normalize through Text.
type Content struct {
	text     string
	segments []Segment
	list     bool
}

func TextContent(s string) Content {
	return Content{text: s}
}

func SegmentContent(segs ...Segment) Content {
	return Content{segments: segs, list: true}
}

// IsSegments reports whether the body arrived as a segment list.
func (c Content) IsSegments() bool {
	return c.list
}

// Text returns the plain string, or the text segments in order joined by
// newlines. Segments of any other type are dropped.
func (c Content) Text() string {
	if !c.list {
		return c.text
	}
	texts := make([]string, 0, len(c.segments))
	for _, s := range c.segments {
		if s.Type == "text" && s.Text != nil {
			texts = append(texts, *s.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.list {
		return json.Marshal(c.segments)
	}
	return json.Marshal(c.text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		segs := make([]Segment, 0, len(raw))
		for _, r := range raw {
			var s Segment
			// non-object elements carry no typed text
			if err := json.Unmarshal(r, &s); err != nil {
				continue
			}
			segs = append(segs, s)
		}
		*c = SegmentContent(segs...)
		return nil
	default:
		*c = TextContent(string(trimmed))
		return nil
	}
}
