package profile

// Fixed option sets for learner skills and interests. Values outside these
// sets are dropped on sanitization so stale persisted data cannot resurrect a
// removed option.
var (
	SkillOptions = []string{
		"Communication", "Basic Computer Literacy", "Microsoft Office", "Typing", "Teamwork",
		"Problem Solving", "Customer Service", "Sales", "Data Entry", "Python (Basics)",
		"Java (Basics)", "SQL (Basics)", "HTML/CSS (Basics)", "Video Editing (Beginner)",
		"Social Media Management", "Marketing", "Graphic Design (Beginner)",
	}

	InterestOptions = []string{
		"Technology", "Gaming", "Creative Arts", "Social Media", "Entrepreneurship",
		"Helping Others", "Music", "Movies", "Sports", "Writing", "Reading",
	}

	LanguageOptions = []string{"English", "Hindi"}

	AIDataInterestOptions = []string{"Low", "Medium", "High"}

	DeviceAccessOptions = []string{"Smartphone", "Laptop", "Shared Device", "Cyber Cafe"}
)

// SanitizeChoices keeps only values present in the allowed option set,
// preserving input order. Unknown values are dropped silently, never raised.
// Sanitizing an already-sanitized list returns an equal list.
func SanitizeChoices(values, options []string) []string {
	if len(values) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(options))
	for _, o := range options {
		allowed[o] = true
	}
	var out []string
	for _, v := range values {
		if allowed[v] {
			out = append(out, v)
		}
	}
	return out
}
