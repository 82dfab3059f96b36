// Package advisor talks to the remote career-advice backend: the chat advice
// endpoint and the document verification endpoint.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magicbus/mentorbridge/internal/history"
	"github.com/magicbus/mentorbridge/internal/profile"
)

// ErrUnreachable indicates the backend could not be contacted at all, as
// opposed to the backend answering with an error status.
var ErrUnreachable = errors.New("advice backend unreachable")

// ServerError is a non-2xx answer from the backend. The body is kept for
// operator-facing diagnostics.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("advice backend returned status %d", e.Status)
}

const (
	adviceTimeout = 60 * time.Second
	verifyTimeout = 90 * time.Second
)

// Client calls the advice backend over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	adviceTimeout time.Duration
	verifyTimeout time.Duration
}

// New creates a Client for the given backend base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		adviceTimeout: adviceTimeout,
		verifyTimeout: verifyTimeout,
	}
}

// NewWithTimeouts creates a Client with explicit timeouts, used by tests that
// exercise the deadline paths.
func NewWithTimeouts(baseURL string, advice, verify time.Duration) *Client {
	c := New(baseURL)
	c.adviceTimeout = advice
	c.verifyTimeout = verify
	return c
}

// adviceRequest is the JSON body for POST /advice. Field names and types are
// part of the backend contract: skills and interests travel as comma-joined
// strings, the contextual answers as numbers or null, never stringified.
type adviceRequest struct {
	CurrentSkills            string `json:"currentSkills"`
	Interests                string `json:"interests"`
	EducationLevel           string `json:"educationLevel"`
	PreferredLanguage        string `json:"preferredLanguage"`
	UserMessage              string `json:"userMessage"`
	ConversationContext      string `json:"conversationContext"`
	StudentName              string `json:"studentName"`
	RoadmapRequested         bool   `json:"roadmapRequested"`
	AIDataInterest           string `json:"aiDataInterest"`
	DeviceAccess             string `json:"deviceAccess"`
	TimePerWeekHours         *int   `json:"timePerWeekHours"`
	MathComfort              *int   `json:"mathComfort"`
	ProblemSolvingConfidence *int   `json:"problemSolvingConfidence"`
	EnglishComfort           *int   `json:"englishComfort"`
}

// RequestAdvice sends one chat turn plus the learner's effective profile and
// windowed conversation context to the backend and returns the reply text.
// A transport failure comes back wrapped in ErrUnreachable; a non-2xx answer
// comes back as *ServerError.
func (c *Client) RequestAdvice(ctx context.Context, p profile.Profile, userMessage string, turns []history.Turn, roadmap bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.adviceTimeout)
	defer cancel()

	ar := adviceRequest{
		CurrentSkills:            strings.Join(p.Skills, ", "),
		Interests:                strings.Join(p.Interests, ", "),
		EducationLevel:           p.EducationLevel,
		PreferredLanguage:        p.Language,
		UserMessage:              userMessage,
		ConversationContext:      history.Window(turns, history.DefaultWindowSize),
		StudentName:              p.Name,
		RoadmapRequested:         roadmap,
		AIDataInterest:           p.AIDataInterest,
		DeviceAccess:             p.DeviceAccess,
		TimePerWeekHours:         p.TimePerWeekHours,
		MathComfort:              p.MathComfort,
		ProblemSolvingConfidence: p.ProblemSolvingConfidence,
		EnglishComfort:           p.EnglishComfort,
	}

	body, err := json.Marshal(ar)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/advice", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating advice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ServerError{Status: resp.StatusCode, Body: string(raw)}
	}

	// The backend answers with the advice as plain text, not JSON.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading advice response: %w", err)
	}
	return string(raw), nil
}
