// Package insights derives visual summaries from a learner's profile: radar
// chart scores across skill categories and a knowledge graph projection built
// from interest rules.
package insights

import "math"

// RadarCategories are the fixed axes of the skills radar, in display order.
var RadarCategories = []string{
	"Communication", "Tech Basics", "Problem Solving", "Creativity", "Business/Marketing",
}

// categoryOf maps individual skills and interests onto radar axes. Entries
// missing from the map contribute to no axis.
var categoryOf = map[string]string{
	"Communication":             "Communication",
	"Teamwork":                  "Communication",
	"Customer Service":          "Communication",
	"Basic Computer Literacy":   "Tech Basics",
	"Microsoft Office":          "Tech Basics",
	"Typing":                    "Tech Basics",
	"Python (Basics)":           "Problem Solving",
	"Java (Basics)":             "Problem Solving",
	"SQL (Basics)":              "Problem Solving",
	"Problem Solving":           "Problem Solving",
	"Graphic Design (Beginner)": "Creativity",
	"Video Editing (Beginner)":  "Creativity",
	"Creative Arts":             "Creativity",
	"Marketing":                 "Business/Marketing",
	"Sales":                     "Business/Marketing",
	"Social Media Management":   "Business/Marketing",
	"Entrepreneurship":          "Business/Marketing",
}

// RadarScores counts skills and interests per category, then scales each
// count relative to the busiest category onto a 1-5 range. An empty profile
// scores 1 on every axis.
func RadarScores(skills, interests []string) []int {
	counts := make(map[string]int, len(RadarCategories))
	for _, item := range append(append([]string{}, skills...), interests...) {
		if c, ok := categoryOf[item]; ok {
			counts[c]++
		}
	}

	maxCount := 1
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}

	scores := make([]int, len(RadarCategories))
	for i, c := range RadarCategories {
		s := int(math.Round(1 + float64(counts[c])/float64(maxCount)*4))
		if s < 1 {
			s = 1
		}
		if s > 5 {
			s = 5
		}
		scores[i] = s
	}
	return scores
}
