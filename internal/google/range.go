package google

import (
	"fmt"
	"regexp"
	"strings"
)

// Range is an A1 notation cell reference such as Sheet1!A1 or Sheet1!A:B.
type Range struct {
	Sheet string
	Area  string
}

var bareSheetName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ParseRange parses an A1 range. A sheet name containing anything other than
// letters, digits and underscores must be single quoted, with embedded
// quotes doubled.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("empty range")
	}

	if strings.HasPrefix(s, "'") {
		var name strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] != '\'' {
				name.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == '\'' {
				name.WriteByte('\'')
				i++
				continue
			}

			rest := s[i+1:]
			if rest == "" {
				return Range{Sheet: name.String()}, nil
			}
			if !strings.HasPrefix(rest, "!") || len(rest) == 1 {
				return Range{}, fmt.Errorf("invalid range %q", s)
			}
			return Range{Sheet: name.String(), Area: rest[1:]}, nil
		}
		return Range{}, fmt.Errorf("unterminated sheet name in %q", s)
	}

	sheet, area, found := strings.Cut(s, "!")
	if !found {
		return Range{Area: s}, nil
	}
	if sheet == "" || area == "" {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}

	return Range{Sheet: sheet, Area: area}, nil
}

func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Range) String() string {
	sheet := r.Sheet
	if sheet != "" && !bareSheetName.MatchString(sheet) {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}

	switch {
	case sheet == "":
		return r.Area
	case r.Area == "":
		return sheet
	default:
		return sheet + "!" + r.Area
	}
}

// Grid is a rectangular, row-major block of cell values.
type Grid [][]string

func (g Grid) validate() error {
	if len(g) == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidGrid)
	}
	width := len(g[0])
	for i, row := range g {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrInvalidGrid, i, len(row), width)
		}
	}
	return nil
}

func (g Grid) values() [][]interface{} {
	values := make([][]interface{}, 0, len(g))
	for _, row := range g {
		record := make([]interface{}, 0, len(row))
		for _, v := range row {
			record = append(record, v)
		}
		values = append(values, record)
	}
	return values
}
