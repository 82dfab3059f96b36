// Package profile defines the effective learner profile and the merge rules
// that reconcile live UI edits, the persisted profile row, and reference
// dataset defaults into one value.
package profile

import (
	"github.com/magicbus/mentorbridge/internal/dataset"
	"github.com/magicbus/mentorbridge/internal/storage"
)

// Hardcoded fallbacks used when neither a live edit, a persisted row, nor a
// dataset record supplies a field.
const (
	DefaultEducationLevel = "10th Pass"
	DefaultLanguage       = "English"
	DefaultAIDataInterest = "High"
	DefaultDeviceAccess   = "Smartphone"
	DefaultComfortScore   = 3
	DefaultWeeklyHours    = 6
)

// Valid ranges for the numeric self-assessment answers. Out-of-range values
// from any source are treated as absent.
const (
	minComfort = 1
	maxComfort = 5
	minHours   = 1
	maxHours   = 40
)

// Profile is the merged, precedence-resolved profile used for one
// interaction. After ResolveEffective every field carries a concrete value;
// the pointer fields are nil only on hand-built values (e.g. anonymous chat
// before any selection).
type Profile struct {
	Name                     string
	EducationLevel           string
	Skills                   []string
	Interests                []string
	Language                 string
	AIDataInterest           string
	DeviceAccess             string
	TimePerWeekHours         *int
	MathComfort              *int
	ProblemSolvingConfidence *int
	EnglishComfort           *int
}

// Row converts the profile to its persisted form.
func (p Profile) Row() storage.Profile {
	return storage.Profile{
		LearnerName:              p.Name,
		EducationLevel:           p.EducationLevel,
		Skills:                   p.Skills,
		Interests:                p.Interests,
		Language:                 p.Language,
		AIDataInterest:           p.AIDataInterest,
		DeviceAccess:             p.DeviceAccess,
		TimePerWeekHours:         p.TimePerWeekHours,
		MathComfort:              p.MathComfort,
		ProblemSolvingConfidence: p.ProblemSolvingConfidence,
		EnglishComfort:           p.EnglishComfort,
	}
}

// Edits are the fields a learner actively changed in the current interaction.
// A nil pointer (or nil slice) means the field was not touched this session.
// An empty string or empty slice edit falls through to the next source, so
// clearing a field in the UI reverts it rather than persisting blankness.
type Edits struct {
	EducationLevel           *string
	Skills                   []string
	Interests                []string
	Language                 *string
	AIDataInterest           *string
	DeviceAccess             *string
	TimePerWeekHours         *int
	MathComfort              *int
	ProblemSolvingConfidence *int
	EnglishComfort           *int
}

// ResolveEffective merges the three sources of truth for a learner into one
// effective profile. Precedence per field, highest first: live edits,
// persisted row, dataset record, hardcoded defaults. Each field resolves
// independently. Sanitization of skills and interests happens after the
// merge so a removed option disappears from every source consistently.
// persisted and rec may be nil when the corresponding source has no row.
func ResolveEffective(name string, edits Edits, persisted *storage.Profile, rec *dataset.Record) Profile {
	var row storage.Profile
	if persisted != nil {
		row = *persisted
	}
	var ds dataset.Record
	if rec != nil {
		ds = *rec
	}

	p := Profile{Name: name}

	p.EducationLevel = firstNonEmpty(deref(edits.EducationLevel), row.EducationLevel, ds.EducationLevel, DefaultEducationLevel)
	p.Skills = firstNonEmptyList(edits.Skills, row.Skills, ds.Skills)
	p.Interests = firstNonEmptyList(edits.Interests, row.Interests, ds.Interests)

	p.Language = firstNonEmpty(chooseOption(deref(edits.Language), LanguageOptions), chooseOption(row.Language, LanguageOptions), DefaultLanguage)
	p.AIDataInterest = firstNonEmpty(chooseOption(deref(edits.AIDataInterest), AIDataInterestOptions), chooseOption(row.AIDataInterest, AIDataInterestOptions), DefaultAIDataInterest)
	p.DeviceAccess = firstNonEmpty(chooseOption(deref(edits.DeviceAccess), DeviceAccessOptions), chooseOption(row.DeviceAccess, DeviceAccessOptions), DefaultDeviceAccess)

	p.TimePerWeekHours = resolveInt(edits.TimePerWeekHours, row.TimePerWeekHours, minHours, maxHours, DefaultWeeklyHours)
	p.MathComfort = resolveInt(edits.MathComfort, row.MathComfort, minComfort, maxComfort, DefaultComfortScore)
	p.ProblemSolvingConfidence = resolveInt(edits.ProblemSolvingConfidence, row.ProblemSolvingConfidence, minComfort, maxComfort, DefaultComfortScore)
	p.EnglishComfort = resolveInt(edits.EnglishComfort, row.EnglishComfort, minComfort, maxComfort, DefaultComfortScore)

	p.Skills = SanitizeChoices(p.Skills, SkillOptions)
	p.Interests = SanitizeChoices(p.Interests, InterestOptions)
	return p
}

// chooseOption maps a value outside the option set to empty so it falls
// through to the next source, the single-choice analogue of the numeric range
// treatment.
func chooseOption(v string, options []string) string {
	for _, o := range options {
		if o == v {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			out := make([]string, len(l))
			copy(out, l)
			return out
		}
	}
	return nil
}

// resolveInt picks the first in-range candidate, falling back to def.
func resolveInt(edit, persisted *int, min, max, def int) *int {
	for _, v := range []*int{edit, persisted} {
		if v != nil && *v >= min && *v <= max {
			out := *v
			return &out
		}
	}
	out := def
	return &out
}
