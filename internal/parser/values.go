package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDecimal parses a number written with either a comma or a period as
// decimal separator. Spaces, including non-breaking ones used as thousand
// separators, are ignored.
func ParseDecimal(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, s)
	if clean == "" {
		return 0, fmt.Errorf("empty numeric cell")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// ParseExcluded interprets the exclusion column of a blank row. An empty cell
// or any spelling of false means the blank is included.
func ParseExcluded(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "false", "0", "faux", "no", "non", "n":
		return false
	case "true", "1", "vrai", "yes", "oui", "y", "x":
		return true
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}
