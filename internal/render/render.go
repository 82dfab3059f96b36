// Package render splits advisor replies into prose and mermaid diagram
// segments so callers can present each block with the right widget.
package render

import (
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// Kind distinguishes segment payloads.
type Kind string

const (
	KindProse   Kind = "prose"
	KindDiagram Kind = "diagram"
)

// Segment is one contiguous block of a reply. DiagramID is set only for
// diagram segments and is unique for the lifetime of the Renderer.
type Segment struct {
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	DiagramID string `json:"diagramId,omitempty"`
}

var mermaidFence = regexp.MustCompile("(?is)```mermaid\\s*(.*?)```")

// Renderer assigns monotonically increasing diagram ids across calls so
// re-rendered replies never collide with earlier ones.
type Renderer struct {
	counter atomic.Int64
}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Split cuts text at mermaid fences. Prose between fences is trimmed and kept
// in order; empty gaps are skipped. Every fence yields a diagram segment and
// consumes an id, even when its body is empty. Text without a fence comes back
// as a single prose segment, and empty or whitespace-only input yields no
// segments.
func (r *Renderer) Split(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	matches := mermaidFence.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: KindProse, Text: text}}
	}

	var segments []Segment
	last := 0
	for _, m := range matches {
		if prose := strings.TrimSpace(text[last:m[0]]); prose != "" {
			segments = append(segments, Segment{Kind: KindProse, Text: prose})
		}
		segments = append(segments, Segment{
			Kind:      KindDiagram,
			Text:      strings.TrimSpace(text[m[2]:m[3]]),
			DiagramID: r.nextID(),
		})
		last = m[1]
	}
	if prose := strings.TrimSpace(text[last:]); prose != "" {
		segments = append(segments, Segment{Kind: KindProse, Text: prose})
	}
	return segments
}

func (r *Renderer) nextID() string {
	return "diagram-" + strconv.FormatInt(r.counter.Add(1), 10)
}
