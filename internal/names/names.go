// Package names holds the display-name formatting shared by the archive
// intake and the model-driven builder.
package names

import "strings"

// Generic solution prefixes that never identify a publisher.
var genericPrefixes = map[string]bool{
	"new":   true,
	"msdyn": true,
	"mscrm": true,
	"adx":   true,
}

// FormatDisplayName turns a unique name like "new_expense_tracker" into
// "Expense Tracker": a recognized generic prefix, or a short publisher
// prefix before the first underscore, is stripped; the remaining segments
// are title-cased and joined with spaces.
func FormatDisplayName(uniqueName string) string {
	name := strings.TrimSpace(uniqueName)
	if name == "" {
		return ""
	}
	segments := strings.Split(name, "_")
	if len(segments) > 1 {
		first := strings.ToLower(segments[0])
		if genericPrefixes[first] || (len(first) >= 2 && len(first) <= 8) {
			segments = segments[1:]
		}
	}
	for i, seg := range segments {
		segments[i] = titleCase(seg)
	}
	return strings.Join(segments, " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
