package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/magicbus/mentorbridge/internal/dataset"
	"github.com/magicbus/mentorbridge/internal/session"
	"github.com/magicbus/mentorbridge/internal/storage"
)

func newTestMCPDeps(t *testing.T, adv *stubAdvisor) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	data := &stubData{
		records: map[string]dataset.Record{
			"Asha": {Name: "Asha", EducationLevel: "12th Pass", Skills: []string{"Typing"}},
		},
		names: []string{"Asha"},
	}
	return MCPDeps{
		Sessions: session.NewManager(store, data, adv),
		Learners: data,
	}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestMCPTool_GetProfile(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpGetProfile(deps)

	result, err := handler(context.Background(), makeCallToolRequest("get_profile", map[string]interface{}{
		"name": "Asha",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var p map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p["educationLevel"] != "12th Pass" {
		t.Errorf("educationLevel = %v", p["educationLevel"])
	}
}

func TestMCPTool_GetProfile_RequiresName(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpGetProfile(deps)

	result, err := handler(context.Background(), makeCallToolRequest("get_profile", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error without name")
	}
}

func TestMCPTool_AskAdvisor_PersistsTurns(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubAdvisor{reply: "Learn SQL basics first."})
	handler := mcpAskAdvisor(deps)

	result, err := handler(context.Background(), makeCallToolRequest("ask_advisor", map[string]interface{}{
		"name":    "Asha",
		"message": "Where do I start?",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}
	if toolText(t, result) != "Learn SQL basics first." {
		t.Errorf("reply = %q", toolText(t, result))
	}

	msgs, err := store.GetMessages("Asha")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Errorf("persisted messages = %d, want user+assistant", len(msgs))
	}
}

func TestMCPTool_GetHistory(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{reply: "answer"})

	if _, err := mcpAskAdvisor(deps)(context.Background(), makeCallToolRequest("ask_advisor", map[string]interface{}{
		"name":    "Asha",
		"message": "question",
	})); err != nil {
		t.Fatal(err)
	}

	result, err := mcpGetHistory(deps)(context.Background(), makeCallToolRequest("get_history", map[string]interface{}{
		"name": "Asha",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var turns []map[string]any
	if err := json.Unmarshal([]byte(toolText(t, result)), &turns); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// Greeting + question + answer.
	if len(turns) != 3 {
		t.Fatalf("turns = %d", len(turns))
	}
	if turns[1]["text"] != "question" || turns[2]["text"] != "answer" {
		t.Errorf("turns = %v", turns)
	}
}

func TestMCPTool_SaveProfileField(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpSaveProfileField(deps)

	result, err := handler(context.Background(), makeCallToolRequest("save_profile_field", map[string]interface{}{
		"name":  "Asha",
		"field": "skills",
		"value": "Sales, Typing",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	saved, err := store.GetProfile("Asha")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Skills) != 2 {
		t.Errorf("skills = %v", saved.Skills)
	}
}

func TestMCPTool_SaveProfileField_RejectsUnknownField(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpSaveProfileField(deps)

	result, err := handler(context.Background(), makeCallToolRequest("save_profile_field", map[string]interface{}{
		"name":  "Asha",
		"field": "favoriteColor",
		"value": "blue",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown field")
	}
	if !strings.Contains(toolText(t, result), "favoriteColor") {
		t.Errorf("message = %q", toolText(t, result))
	}
}

func TestMCPTool_SaveProfileField_BadInteger(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpSaveProfileField(deps)

	result, err := handler(context.Background(), makeCallToolRequest("save_profile_field", map[string]interface{}{
		"name":  "Asha",
		"field": "mathComfort",
		"value": "very",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for non-integer value")
	}
}

func TestMCPResource_Learners(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubAdvisor{})
	handler := mcpResourceLearners(deps)

	contents, err := handler(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: "mentor://learners"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var names []string
	if err := json.Unmarshal([]byte(tc.Text), &names); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(names) != 1 || names[0] != "Asha" {
		t.Errorf("names = %v", names)
	}
}
