// Package education maps countries to the grade levels their school
// system uses. Schools pick a country at registration and assign
// classrooms to one of its levels.
package education

import "sort"

var systems = map[string][]string{
	"Nigeria": {
		"Primary 1", "Primary 2", "Primary 3", "Primary 4", "Primary 5", "Primary 6",
		"JSS 1", "JSS 2", "JSS 3",
		"SS 1", "SS 2", "SS 3",
	},
	"United States": {
		"Kindergarten",
		"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5",
		"Grade 6", "Grade 7", "Grade 8",
		"Grade 9", "Grade 10", "Grade 11", "Grade 12",
	},
	"United Kingdom": {
		"Year 1", "Year 2", "Year 3", "Year 4", "Year 5", "Year 6",
		"Year 7", "Year 8", "Year 9",
		"Year 10", "Year 11",
		"Year 12", "Year 13",
	},
	"Canada": {
		"Kindergarten",
		"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5", "Grade 6",
		"Grade 7", "Grade 8", "Grade 9",
		"Grade 10", "Grade 11", "Grade 12",
	},
	"South Africa": {
		"Grade R",
		"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5", "Grade 6", "Grade 7",
		"Grade 8", "Grade 9",
		"Grade 10", "Grade 11", "Grade 12",
	},
	"Ghana": {
		"Primary 1", "Primary 2", "Primary 3", "Primary 4", "Primary 5", "Primary 6",
		"JHS 1", "JHS 2", "JHS 3",
		"SHS 1", "SHS 2", "SHS 3",
	},
	"Kenya": {
		"Grade 1", "Grade 2", "Grade 3", "Grade 4", "Grade 5", "Grade 6",
		"Grade 7", "Grade 8", "Grade 9",
		"Grade 10", "Grade 11", "Grade 12",
	},
	"India": {
		"Class 1", "Class 2", "Class 3", "Class 4", "Class 5",
		"Class 6", "Class 7", "Class 8",
		"Class 9", "Class 10",
		"Class 11", "Class 12",
	},
}

// Countries returns the supported countries, sorted.
func Countries() []string {
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Levels returns the grade levels for a country, in school order.
// Unknown countries return an empty list.
func Levels(country string) []string {
	levels := systems[country]
	out := make([]string, len(levels))
	copy(out, levels)
	return out
}

// Known reports whether a country has a configured school system.
func Known(country string) bool {
	_, ok := systems[country]
	return ok
}
