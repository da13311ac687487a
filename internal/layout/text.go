package layout

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to truncated text
const Ellipsis = "..."

// MeasureFunc returns the rendered width of s in millimetres
type MeasureFunc func(s string) float64

// Truncate keeps the first max runes of s and appends an ellipsis when
// anything was cut. Strings of max runes or fewer are returned unchanged.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + Ellipsis
}

// FitText shortens s until it plus an ellipsis fits in width
func FitText(s string, width float64, measure MeasureFunc) string {
	if measure(s) <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := strings.TrimRight(string(runes[:n]), " ") + Ellipsis
		if measure(candidate) <= width {
			return candidate
		}
	}
	return Ellipsis
}

// Wrap breaks s into lines no wider than width. Explicit newlines are kept,
// words are packed greedily and a word wider than the line is split by rune.
// Blank input yields no lines.
func Wrap(s string, width float64, measure MeasureFunc) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		current := ""
		for _, word := range words {
			for _, piece := range splitWord(word, width, measure) {
				candidate := piece
				if current != "" {
					candidate = current + " " + piece
				}
				if current != "" && measure(candidate) > width {
					lines = append(lines, current)
					current = piece
					continue
				}
				current = candidate
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// splitWord cuts a single word into pieces that each fit in width
func splitWord(word string, width float64, measure MeasureFunc) []string {
	if measure(word) <= width {
		return []string{word}
	}
	var pieces []string
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && measure(string(runes[start:end+1])) <= width {
			end++
		}
		pieces = append(pieces, string(runes[start:end]))
		start = end
	}
	return pieces
}

// ClipLines keeps at most max lines, marking the last kept line with an
// ellipsis when lines were dropped
func ClipLines(lines []string, max int) []string {
	if max <= 0 {
		return nil
	}
	if len(lines) <= max {
		return lines
	}
	out := make([]string, max)
	copy(out, lines[:max])
	out[max-1] = strings.TrimRight(out[max-1], " .") + Ellipsis
	return out
}
