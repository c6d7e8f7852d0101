package normalization

import (
	"math"
	"strconv"
	"strings"
)

// uriTail splits a type URI such as
// http://s.opencalais.com/1/type/em/e/Person into ("e", "Person").
func uriTail(uri string) (group, name string, ok bool) {
	if uri == "" {
		return "", "", false
	}
	parts := strings.Split(uri, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	group, name = parts[len(parts)-2], parts[len(parts)-1]
	if group == "" || name == "" {
		return "", "", false
	}
	return group, name, true
}

func parseScore(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseImportance accepts "2" as well as "2.0"; anything else is 0.
func parseImportance(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, ok := parseScore(s); ok {
		return int(math.Round(f))
	}
	return 0
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
