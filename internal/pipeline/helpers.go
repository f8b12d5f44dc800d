package pipeline

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayouts are the date spellings found in IDP output.
var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseDate parses a document date. The boolean is false when no layout matches.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAge parses an age such as "38" or "38.0".
func parseAge(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// normalizeName lower-cases a person or company name and drops punctuation.
func normalizeName(s string) []string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '\'', '"':
			return -1
		}
		return r
	}, s)
	return strings.Fields(s)
}

// sameName reports whether two names refer to the same person.
// Middle names and initials are ignored.
func sameName(a, b string) bool {
	ta, tb := normalizeName(a), normalizeName(b)
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	return ta[0] == tb[0] && ta[len(ta)-1] == tb[len(tb)-1]
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// categoryLabel turns "emergency_room_charges" into "Emergency Room".
func categoryLabel(key string) string {
	key = strings.TrimSuffix(key, "_charges")
	key = strings.ReplaceAll(key, "_", " ")
	// A Caser keeps state and is not safe for concurrent use.
	return cases.Title(language.English).String(key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
