package models

import "strings"

// SegmentSeparator joins the three lines of a generated haiku.
const SegmentSeparator = " / "

// Haiku is one generated poem: three lines joined by SegmentSeparator.
type Haiku string

// NewHaiku joins lines into a single Haiku value.
func NewHaiku(lines []string) Haiku {
	return Haiku(strings.Join(lines, SegmentSeparator))
}

// Lines splits the haiku back into its segments.
func (h Haiku) Lines() []string {
	return strings.Split(string(h), SegmentSeparator)
}

// Valid reports whether the haiku has exactly three non-empty segments.
func (h Haiku) Valid() bool {
	lines := h.Lines()
	if len(lines) != 3 {
		return false
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			return false
		}
	}
	return true
}

// Content is the ordered list of haiku produced for a single request.
type Content []Haiku
