package insights

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRadarScores_Empty(t *testing.T) {
	scores := RadarScores(nil, nil)
	if len(scores) != len(RadarCategories) {
		t.Fatalf("len = %d", len(scores))
	}
	for i, s := range scores {
		if s != 1 {
			t.Errorf("%s = %d, want 1", RadarCategories[i], s)
		}
	}
}

func TestRadarScores_Scaling(t *testing.T) {
	// Three communication items, one tech item. The busiest axis caps at 5 and
	// the others scale relative to it.
	skills := []string{"Communication", "Teamwork", "Customer Service", "Typing"}

	scores := RadarScores(skills, nil)
	if scores[0] != 5 {
		t.Errorf("Communication = %d, want 5", scores[0])
	}
	// 1 + (1/3)*4 rounds to 2.
	if scores[1] != 2 {
		t.Errorf("Tech Basics = %d, want 2", scores[1])
	}
	if scores[2] != 1 || scores[3] != 1 || scores[4] != 1 {
		t.Errorf("untouched axes = %v", scores[2:])
	}
}

func TestRadarScores_InterestsCount(t *testing.T) {
	scores := RadarScores(nil, []string{"Creative Arts", "Entrepreneurship"})
	if scores[3] != 5 {
		t.Errorf("Creativity = %d", scores[3])
	}
	if scores[4] != 5 {
		t.Errorf("Business/Marketing = %d", scores[4])
	}
}

func TestRadarScores_UnknownItemsIgnored(t *testing.T) {
	scores := RadarScores([]string{"Juggling"}, []string{"Gaming"})
	for i, s := range scores {
		if s != 1 {
			t.Errorf("%s = %d, want 1", RadarCategories[i], s)
		}
	}
}

const rulesJSON = `[
  {"interest": "Technology", "trait": "Logical thinking", "skill": "Python (Basics)", "role": "Junior Developer"},
  {"interest": "Technology", "trait": "Curiosity", "skill": "SQL (Basics)", "role": "Data Analyst"},
  {"interest": "Creative Arts", "trait": "Visual sense", "skill": "Graphic Design (Beginner)", "role": "Design Assistant"}
]`

func writeRules(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kg_rules.json")
	if err := os.WriteFile(path, []byte(rulesJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRules_Missing(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if rules != nil {
		t.Errorf("rules = %v", rules)
	}
}

func TestBuildGraph_FiltersByInterest(t *testing.T) {
	rules, err := LoadRules(writeRules(t))
	if err != nil {
		t.Fatal(err)
	}

	g := BuildGraph(rules, []string{"Technology"})
	if len(g.Edges) != 6 {
		t.Errorf("edges = %d, want 6 (two matching rules)", len(g.Edges))
	}
	for _, n := range g.Nodes {
		if n.ID == "interest:Creative Arts" {
			t.Error("filtered interest leaked into graph")
		}
	}
	// The shared interest node appears once.
	count := 0
	for _, n := range g.Nodes {
		if n.ID == "interest:Technology" {
			count++
			if n.Color != colorInterest {
				t.Errorf("interest color = %q", n.Color)
			}
		}
	}
	if count != 1 {
		t.Errorf("interest node count = %d", count)
	}
}

func TestBuildGraph_NoInterestsMatchesAll(t *testing.T) {
	rules, _ := LoadRules(writeRules(t))
	g := BuildGraph(rules, nil)
	if len(g.Edges) != 9 {
		t.Errorf("edges = %d, want 9", len(g.Edges))
	}
}

func TestBuildGraph_EdgeLabels(t *testing.T) {
	rules, _ := LoadRules(writeRules(t))
	g := BuildGraph(rules, []string{"Creative Arts"})

	want := []Edge{
		{Source: "interest:Creative Arts", Target: "trait:Visual sense", Label: "has core logic"},
		{Source: "trait:Visual sense", Target: "skill:Graphic Design (Beginner)", Label: "builds"},
		{Source: "skill:Graphic Design (Beginner)", Target: "role:Design Assistant", Label: "required for"},
	}
	if !reflect.DeepEqual(g.Edges, want) {
		t.Errorf("edges = %v", g.Edges)
	}
}
