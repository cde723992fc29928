// Package pages turns raw page-selection input into zero-based page indices.
package pages

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how pages are chosen and how many files a cut produces.
type Mode string

const (
	// Range extracts one contiguous block of pages into a single document.
	Range Mode = "range"
	// Multiple extracts a user-listed set of pages, one document per page.
	Multiple Mode = "multiple"
	// Each extracts every page of the document, one document per page.
	Each Mode = "each"
)

// ParseMode maps user text onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Range, Multiple, Each:
		return m, nil
	case "all":
		return Each, nil
	default:
		return "", fmt.Errorf("unknown selection mode %q", s)
	}
}

func (m Mode) String() string { return string(m) }

// Selection is a resolved page selection. Indices are zero-based.
// For Range, Indices holds exactly two values: start and end.
type Selection struct {
	Mode    Mode
	Indices []int
}

// Start returns the first index of a Range selection.
func (s Selection) Start() int { return s.Indices[0] }

// End returns the last index of a Range selection.
func (s Selection) End() int { return s.Indices[len(s.Indices)-1] }

// Count returns how many output documents the selection produces.
func (s Selection) Count() int {
	if s.Mode == Range {
		return 1
	}
	return len(s.Indices)
}

// Resolve validates raw input fields for mode and converts them to
// zero-based indices. total is the page count of the source document and
// is only consulted in Each mode; no page is looked up here.
func Resolve(mode Mode, fields []string, total int) (Selection, error) {
	switch mode {
	case Range:
		return resolveRange(fields)
	case Multiple:
		return resolveMultiple(fields)
	case Each:
		if total < 0 {
			total = 0
		}
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return Selection{Mode: Each, Indices: idx}, nil
	default:
		return Selection{}, fmt.Errorf("unknown selection mode %q", mode)
	}
}

func resolveRange(fields []string) (Selection, error) {
	if len(fields) != 2 {
		return Selection{}, &ValueError{Field: len(fields), Reason: "range needs a start and an end page"}
	}
	if allEmpty(fields) {
		return Selection{}, ErrEmptyInput
	}
	start, err := parsePage(0, fields[0])
	if err != nil {
		return Selection{}, err
	}
	end, err := parsePage(1, fields[1])
	if err != nil {
		return Selection{}, err
	}
	if start > end {
		return Selection{}, &OrderError{Start: start, End: end}
	}
	return Selection{Mode: Range, Indices: []int{start - 1, end - 1}}, nil
}

func resolveMultiple(fields []string) (Selection, error) {
	if allEmpty(fields) {
		return Selection{}, ErrEmptyInput
	}
	if len(fields) != 1 {
		return Selection{}, &ValueError{Field: len(fields), Reason: "list mode takes a single field"}
	}
	tokens := strings.Split(fields[0], ",")
	idx := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, err := parsePage(0, tok)
		if err != nil {
			return Selection{}, err
		}
		idx = append(idx, n-1)
	}
	return Selection{Mode: Multiple, Indices: idx}, nil
}

// parsePage parses one 1-based page number.
func parsePage(field int, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &ValueError{Field: field, Value: raw, Reason: "empty"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValueError{Field: field, Value: raw, Reason: "not an integer"}
	}
	if n <= 0 {
		return 0, &ValueError{Field: field, Value: raw, Reason: "must be greater than 0"}
	}
	return n, nil
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
