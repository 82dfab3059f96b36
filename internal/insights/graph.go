package insights

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rule is one interest->trait->skill->role chain from the rules file.
type Rule struct {
	Interest string `json:"interest"`
	Trait    string `json:"trait"`
	Skill    string `json:"skill"`
	Role     string `json:"role"`
}

// Node colors by kind, matching the explorer UI palette.
const (
	colorInterest = "#2f80ed"
	colorTrait    = "#1f7a5f"
	colorSkill    = "#f6b445"
	colorRole     = "#6f42c1"
)

// Node is one vertex of the knowledge graph projection.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Edge is one directed, labeled connection.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the node/edge projection for a set of interests.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// LoadRules reads the knowledge-graph rules file. A missing file is not an
// error; it yields no rules and the graph stays empty.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading kg rules: %w", err)
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parsing kg rules: %w", err)
	}
	return rules, nil
}

// BuildGraph projects the rules matching the given interests into a graph.
// With no interests every rule matches. Nodes are deduplicated by id; node
// order follows first appearance.
func BuildGraph(rules []Rule, interests []string) Graph {
	interestSet := make(map[string]bool, len(interests))
	for _, i := range interests {
		interestSet[strings.TrimSpace(i)] = true
	}

	var g Graph
	seen := make(map[string]bool)
	addNode := func(id, label, color string) {
		if !seen[id] {
			seen[id] = true
			g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Color: color})
		}
	}

	for _, r := range rules {
		if len(interestSet) > 0 && !interestSet[r.Interest] {
			continue
		}
		interestID := "interest:" + r.Interest
		traitID := "trait:" + r.Trait
		skillID := "skill:" + r.Skill
		roleID := "role:" + r.Role

		addNode(interestID, r.Interest, colorInterest)
		addNode(traitID, r.Trait, colorTrait)
		addNode(skillID, r.Skill, colorSkill)
		addNode(roleID, r.Role, colorRole)

		g.Edges = append(g.Edges,
			Edge{Source: interestID, Target: traitID, Label: "has core logic"},
			Edge{Source: traitID, Target: skillID, Label: "builds"},
			Edge{Source: skillID, Target: roleID, Label: "required for"},
		)
	}
	return g
}
