// Package api exposes the mentor copilot over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/magicbus/mentorbridge/internal/advisor"
	"github.com/magicbus/mentorbridge/internal/insights"
	"github.com/magicbus/mentorbridge/internal/onboarding"
	"github.com/magicbus/mentorbridge/internal/profile"
	"github.com/magicbus/mentorbridge/internal/session"
	"github.com/magicbus/mentorbridge/internal/storage"
)

const maxVerifyBodySize = 25 << 20

// LearnerLister enumerates reference dataset learner names.
type LearnerLister interface {
	Names(ctx context.Context) []string
}

// Verifier forwards document verification to the backend.
type Verifier interface {
	Verify(ctx context.Context, docs []advisor.Document, fields map[string]string) (*advisor.VerificationResult, error)
}

type AppDeps struct {
	Sessions    *session.Manager
	Store       *storage.Store
	Learners    LearnerLister
	Verifier    Verifier
	Token       string // empty disables bearer auth
	KGRulesPath string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Get("/learners", handleListLearners(deps))
		r.Get("/learners/{name}/profile", handleGetProfile(deps))
		r.Put("/learners/{name}/profile", handlePutProfile(deps))
		r.Get("/learners/{name}/messages", handleGetMessages(deps))
		r.Get("/learners/{name}/insights", handleGetInsights(deps))
		r.Post("/learners/{name}/chat", handleChat(deps))
		r.Post("/onboarding/verify", handleVerify(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleListLearners(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := deps.Learners.Names(r.Context())
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"learners": names})
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, profileJSON(s.EffectiveProfile(r.Context())))
	}
}

// ProfileUpdateRequest carries live sidebar edits. Absent fields are left
// untouched; present-but-empty fields revert to the next source.
type ProfileUpdateRequest struct {
	EducationLevel           *string  `json:"educationLevel"`
	Skills                   []string `json:"skills"`
	Interests                []string `json:"interests"`
	Language                 *string  `json:"language"`
	AIDataInterest           *string  `json:"aiDataInterest"`
	DeviceAccess             *string  `json:"deviceAccess"`
	TimePerWeekHours         *int     `json:"timePerWeekHours"`
	MathComfort              *int     `json:"mathComfort"`
	ProblemSolvingConfidence *int     `json:"problemSolvingConfidence"`
	EnglishComfort           *int     `json:"englishComfort"`
}

func (req ProfileUpdateRequest) edits() profile.Edits {
	return profile.Edits{
		EducationLevel:           req.EducationLevel,
		Skills:                   req.Skills,
		Interests:                req.Interests,
		Language:                 req.Language,
		AIDataInterest:           req.AIDataInterest,
		DeviceAccess:             req.DeviceAccess,
		TimePerWeekHours:         req.TimePerWeekHours,
		MathComfort:              req.MathComfort,
		ProblemSolvingConfidence: req.ProblemSolvingConfidence,
		EnglishComfort:           req.EnglishComfort,
	}
}

func handlePutProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		s, err := deps.Sessions.Get(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		s.SetEdits(req.edits())
		if err := s.SaveProfile(r.Context()); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, profileJSON(s.EffectiveProfile(r.Context())))
	}
}

func handleGetMessages(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := deps.Store.GetMessages(chi.URLParam(r, "name"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading messages: %v", err)
			return
		}
		type messageJSON struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"createdAt"`
		}
		out := make([]messageJSON, len(msgs))
		for i, m := range msgs {
			out[i] = messageJSON{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.Format(time.RFC3339)}
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": out})
	}
}

func handleGetInsights(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Sessions.Get(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		p := s.EffectiveProfile(r.Context())

		rules, err := insights.LoadRules(deps.KGRulesPath)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading kg rules: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"radar": map[string]any{
				"categories": insights.RadarCategories,
				"scores":     insights.RadarScores(p.Skills, p.Interests),
			},
			"graph": insights.BuildGraph(rules, p.Interests),
		})
	}
}

type ChatRequest struct {
	Message          string `json:"message"`
	RoadmapRequested bool   `json:"roadmapRequested"`
}

func handleChat(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Message == "" && !req.RoadmapRequested {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		s, err := deps.Sessions.Get(r.Context(), chi.URLParam(r, "name"))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}

		var reply session.Reply
		if req.Message == "" {
			reply, err = s.RequestRoadmap(r.Context())
		} else {
			reply, err = s.SendMessage(r.Context(), req.Message, req.RoadmapRequested)
		}
		if err != nil {
			var se *advisor.ServerError
			switch {
			case errors.As(err, &se):
				httpError(w, http.StatusBadGateway, "api_error", "advice backend error (%d): %s", se.Status, se.Body)
			case errors.Is(err, advisor.ErrUnreachable):
				httpError(w, http.StatusServiceUnavailable, "api_error", "advice backend unreachable, please retry")
			default:
				httpError(w, http.StatusInternalServerError, "api_error", "chat failed: %v", err)
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"reply":    reply.Text,
			"segments": reply.Segments,
		})
	}
}

func handleVerify(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxVerifyBodySize)
		if err := r.ParseMultipartForm(maxVerifyBodySize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart body: %v", err)
			return
		}

		var docs []advisor.Document
		var checks []onboarding.CheckResult
		for _, field := range []string{"aadhaar", "income"} {
			file, hdr, err := r.FormFile(field)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%s document is required", field)
				return
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "reading %s: %v", field, err)
				return
			}

			check := onboarding.CheckDocument(hdr.Filename, content)
			checks = append(checks, check)
			if !check.OK {
				httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%s: %s", field, check.Reason)
				return
			}
			docs = append(docs, advisor.Document{Field: field, Filename: hdr.Filename, Content: content})
		}

		fields := make(map[string]string)
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}

		result, err := deps.Verifier.Verify(r.Context(), docs, fields)
		if err != nil {
			var se *advisor.ServerError
			switch {
			case errors.As(err, &se):
				httpError(w, http.StatusBadGateway, "api_error", "verification backend error (%d): %s", se.Status, se.Body)
			case errors.Is(err, advisor.ErrUnreachable):
				httpError(w, http.StatusServiceUnavailable, "api_error", "verification backend unreachable, please retry")
			default:
				httpError(w, http.StatusInternalServerError, "api_error", "verification failed: %v", err)
			}
			return
		}

		stage := onboarding.StageVerify
		if result.Verified {
			stage = onboarding.StageOnboarded
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"verified":        result.Verified,
			"blobPath":        result.BlobPath,
			"blobUploadError": result.BlobUploadError,
			"stage":           stage,
			"checks":          checks,
		})
	}
}

func profileJSON(p profile.Profile) map[string]any {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return map[string]any{
		"name":                     p.Name,
		"educationLevel":           p.EducationLevel,
		"skills":                   skills,
		"interests":                interests,
		"language":                 p.Language,
		"aiDataInterest":           p.AIDataInterest,
		"deviceAccess":             p.DeviceAccess,
		"timePerWeekHours":         p.TimePerWeekHours,
		"mathComfort":              p.MathComfort,
		"problemSolvingConfidence": p.ProblemSolvingConfidence,
		"englishComfort":           p.EnglishComfort,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
