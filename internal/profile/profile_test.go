package profile

import (
	"reflect"
	"testing"

	"github.com/magicbus/mentorbridge/internal/dataset"
	"github.com/magicbus/mentorbridge/internal/storage"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestResolveEffective_PrecedenceChain(t *testing.T) {
	persisted := &storage.Profile{
		LearnerName:    "Asha",
		EducationLevel: "Graduate",
		Skills:         []string{"Typing", "Sales"},
	}
	rec := &dataset.Record{
		Name:           "Asha",
		EducationLevel: "12th Pass",
		Skills:         []string{"Typing"},
		Interests:      []string{"Technology"},
	}

	// Live edit wins.
	edits := Edits{EducationLevel: strp("Diploma / ITI")}
	p := ResolveEffective("Asha", edits, persisted, rec)
	if p.EducationLevel != "Diploma / ITI" {
		t.Errorf("with live edit: education = %q", p.EducationLevel)
	}

	// Removing the live edit falls through to persisted.
	p = ResolveEffective("Asha", Edits{}, persisted, rec)
	if p.EducationLevel != "Graduate" {
		t.Errorf("persisted fallthrough: education = %q", p.EducationLevel)
	}

	// Removing persisted falls through to dataset.
	p = ResolveEffective("Asha", Edits{}, nil, rec)
	if p.EducationLevel != "12th Pass" {
		t.Errorf("dataset fallthrough: education = %q", p.EducationLevel)
	}

	// Removing dataset falls through to the hardcoded default.
	p = ResolveEffective("Asha", Edits{}, nil, nil)
	if p.EducationLevel != DefaultEducationLevel {
		t.Errorf("default fallthrough: education = %q", p.EducationLevel)
	}
}

func TestResolveEffective_FieldsResolveIndependently(t *testing.T) {
	// Persisted row has an education override but no skills; skills must fall
	// through to the dataset while education uses the persisted value.
	persisted := &storage.Profile{LearnerName: "Ravi", EducationLevel: "Graduate"}
	rec := &dataset.Record{
		Name:           "Ravi",
		EducationLevel: "10th Pass",
		Skills:         []string{"Communication"},
	}

	p := ResolveEffective("Ravi", Edits{}, persisted, rec)
	if p.EducationLevel != "Graduate" {
		t.Errorf("education = %q", p.EducationLevel)
	}
	if !reflect.DeepEqual(p.Skills, []string{"Communication"}) {
		t.Errorf("skills = %v, want dataset defaults", p.Skills)
	}
}

func TestResolveEffective_NumericDefaultsAndRanges(t *testing.T) {
	p := ResolveEffective("Asha", Edits{}, nil, nil)
	if *p.TimePerWeekHours != DefaultWeeklyHours {
		t.Errorf("hours = %d", *p.TimePerWeekHours)
	}
	if *p.MathComfort != DefaultComfortScore {
		t.Errorf("math comfort = %d", *p.MathComfort)
	}

	// Out-of-range persisted values are treated as absent.
	persisted := &storage.Profile{
		LearnerName:      "Asha",
		TimePerWeekHours: intp(99),
		MathComfort:      intp(0),
	}
	p = ResolveEffective("Asha", Edits{}, persisted, nil)
	if *p.TimePerWeekHours != DefaultWeeklyHours {
		t.Errorf("out-of-range hours not dropped: %d", *p.TimePerWeekHours)
	}
	if *p.MathComfort != DefaultComfortScore {
		t.Errorf("out-of-range comfort not dropped: %d", *p.MathComfort)
	}

	// In-range edit wins over persisted.
	p = ResolveEffective("Asha", Edits{MathComfort: intp(5)}, &storage.Profile{MathComfort: intp(2)}, nil)
	if *p.MathComfort != 5 {
		t.Errorf("edit not used: %d", *p.MathComfort)
	}
}

func TestResolveEffective_OffListChoicesFallThrough(t *testing.T) {
	// An unknown language edit yields to the persisted value; an unknown
	// persisted device yields to the default.
	persisted := &storage.Profile{
		LearnerName:  "Asha",
		Language:     "Hindi",
		DeviceAccess: "Fax Machine",
	}
	p := ResolveEffective("Asha", Edits{Language: strp("Klingon")}, persisted, nil)
	if p.Language != "Hindi" {
		t.Errorf("language = %q", p.Language)
	}
	if p.DeviceAccess != DefaultDeviceAccess {
		t.Errorf("device access = %q", p.DeviceAccess)
	}

	// On-list edits still win.
	p = ResolveEffective("Asha", Edits{AIDataInterest: strp("Low")}, persisted, nil)
	if p.AIDataInterest != "Low" {
		t.Errorf("ai data interest = %q", p.AIDataInterest)
	}
}

func TestResolveEffective_SanitizesAfterMerge(t *testing.T) {
	// "Fortran" is not in the option set regardless of which source carries it.
	persisted := &storage.Profile{
		LearnerName: "Asha",
		Skills:      []string{"Typing", "Fortran"},
	}
	p := ResolveEffective("Asha", Edits{}, persisted, nil)
	if !reflect.DeepEqual(p.Skills, []string{"Typing"}) {
		t.Errorf("persisted source not sanitized: %v", p.Skills)
	}

	p = ResolveEffective("Asha", Edits{Skills: []string{"Fortran", "Sales"}}, persisted, nil)
	if !reflect.DeepEqual(p.Skills, []string{"Sales"}) {
		t.Errorf("live source not sanitized: %v", p.Skills)
	}
}

func TestResolveEffective_EmptyEditFallsThrough(t *testing.T) {
	persisted := &storage.Profile{LearnerName: "Asha", Skills: []string{"Typing"}}

	p := ResolveEffective("Asha", Edits{Skills: []string{}}, persisted, nil)
	if !reflect.DeepEqual(p.Skills, []string{"Typing"}) {
		t.Errorf("empty edit should fall through: %v", p.Skills)
	}
}

func TestSanitizeChoices_Idempotent(t *testing.T) {
	input := []string{"Typing", "Nonsense", "Sales"}

	once := SanitizeChoices(input, SkillOptions)
	twice := SanitizeChoices(once, SkillOptions)

	if !reflect.DeepEqual(once, []string{"Typing", "Sales"}) {
		t.Errorf("first pass = %v", once)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent: %v vs %v", once, twice)
	}
}

func TestSanitizeChoices_Empty(t *testing.T) {
	if got := SanitizeChoices(nil, SkillOptions); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}

func TestEndToEnd_AshaScenario(t *testing.T) {
	rec := &dataset.Record{
		Name:           "Asha",
		EducationLevel: "12th Pass",
		Skills:         []string{"Typing"},
	}

	// New learner: no persisted row yet.
	p := ResolveEffective("Asha", Edits{}, nil, rec)
	if p.EducationLevel != "12th Pass" {
		t.Errorf("education = %q", p.EducationLevel)
	}
	if !reflect.DeepEqual(p.Skills, []string{"Typing"}) {
		t.Errorf("skills = %v", p.Skills)
	}

	// Learner adds Sales and saves; a later session with no live edits sees
	// the persisted union.
	saved := p.Row()
	saved.Skills = []string{"Typing", "Sales"}

	p = ResolveEffective("Asha", Edits{}, &saved, rec)
	if !reflect.DeepEqual(p.Skills, []string{"Typing", "Sales"}) {
		t.Errorf("skills after save = %v", p.Skills)
	}
}
