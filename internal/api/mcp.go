package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/magicbus/mentorbridge/internal/profile"
	"github.com/magicbus/mentorbridge/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Sessions *session.Manager
	Learners LearnerLister
}

// NewMCPServer creates an MCP server exposing the mentor tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"mentorbridge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("mentorbridge — learner profiles, conversation history, and career advice for mentor copilots."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("get_profile",
			mcp.WithDescription("Return the learner's effective profile after merging live edits, saved values, and dataset defaults."),
			mcp.WithString("name", mcp.Description("Learner name"), mcp.Required()),
		),
		mcpGetProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("get_history",
			mcp.WithDescription("Return the learner's recent conversation turns."),
			mcp.WithString("name", mcp.Description("Learner name"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of turns (default 10)")),
		),
		mcpGetHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_advisor",
			mcp.WithDescription("Send one question to the career advice backend on the learner's behalf and return the reply."),
			mcp.WithString("name", mcp.Description("Learner name"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithBoolean("roadmap", mcp.Description("Request a full roadmap")),
		),
		mcpAskAdvisor(deps),
	)

	s.AddTool(
		mcp.NewTool("save_profile_field",
			mcp.WithDescription("Update one field of the learner's profile and persist the result."),
			mcp.WithString("name", mcp.Description("Learner name"), mcp.Required()),
			mcp.WithString("field", mcp.Description("Field key: educationLevel, skills, interests, language, aiDataInterest, deviceAccess, timePerWeekHours, mathComfort, problemSolvingConfidence, englishComfort"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value; comma-separated for skills and interests"), mcp.Required()),
		),
		mcpSaveProfileField(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"mentor://learners",
			"Learner Names",
			mcp.WithResourceDescription("Names of learners in the reference dataset"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLearners(deps),
	)

	return s
}

func mcpGetProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		s, err := deps.Sessions.Get(ctx, name)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		b, err := json.Marshal(profileJSON(s.EffectiveProfile(ctx)))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal profile: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetHistory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}

		s, err := deps.Sessions.Get(ctx, name)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		turns := s.Transcript()
		if len(turns) > limit {
			turns = turns[len(turns)-limit:]
		}

		type turnJSON struct {
			Speaker   string `json:"speaker"`
			Text      string `json:"text"`
			Timestamp string `json:"timestamp,omitempty"`
		}
		out := make([]turnJSON, len(turns))
		for i, turn := range turns {
			out[i] = turnJSON{Speaker: string(turn.Speaker), Text: turn.Text}
			if !turn.Timestamp.IsZero() {
				out[i].Timestamp = turn.Timestamp.Format(time.RFC3339)
			}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal history: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAskAdvisor(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		roadmap := req.GetBool("roadmap", false)

		s, err := deps.Sessions.Get(ctx, name)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		reply, err := s.SendMessage(ctx, message, roadmap)
		if err != nil {
			return mcpError(fmt.Sprintf("advice request failed: %v", err)), nil
		}
		return mcpText(reply.Text), nil
	}
}

func mcpSaveProfileField(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		field, err := req.RequireString("field")
		if err != nil {
			return mcpError("field is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}

		s, err := deps.Sessions.Get(ctx, name)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load session: %v", err)), nil
		}

		var editErr error
		s.UpdateEdits(func(e *profile.Edits) {
			editErr = applyEdit(e, field, value)
		})
		if editErr != nil {
			return mcpError(editErr.Error()), nil
		}
		if err := s.SaveProfile(ctx); err != nil {
			return mcpError(fmt.Sprintf("failed to save profile: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Set %s = %s for %s", field, value, name)), nil
	}
}

func applyEdit(edits *profile.Edits, field, value string) error {
	switch field {
	case "educationLevel":
		edits.EducationLevel = &value
	case "skills":
		edits.Skills = splitCSVValue(value)
	case "interests":
		edits.Interests = splitCSVValue(value)
	case "language":
		edits.Language = &value
	case "aiDataInterest":
		edits.AIDataInterest = &value
	case "deviceAccess":
		edits.DeviceAccess = &value
	case "timePerWeekHours", "mathComfort", "problemSolvingConfidence", "englishComfort":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("field %s needs an integer value, got %q", field, value)
		}
		switch field {
		case "timePerWeekHours":
			edits.TimePerWeekHours = &n
		case "mathComfort":
			edits.MathComfort = &n
		case "problemSolvingConfidence":
			edits.ProblemSolvingConfidence = &n
		case "englishComfort":
			edits.EnglishComfort = &n
		}
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
	return nil
}

func splitCSVValue(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func mcpResourceLearners(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names := deps.Learners.Names(ctx)
		if names == nil {
			names = []string{}
		}
		b, err := json.Marshal(names)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal learner names: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
