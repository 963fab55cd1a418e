// Package questions fetches the ordered interview script for a session
// from the question-bank service. The bank is read-only; if it is
// unreachable or returns garbage the session falls back to a fixed
// built-in list rather than failing.
package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

type Bank interface {
	FetchQuestions(ctx context.Context, sessionID, jobID string) []types.Question
}

type HTTPBank struct {
	http   *http.Client
	apiKey string
	base   string
}

func NewHTTPBank(baseURL, apiKey string) *HTTPBank {
	return &HTTPBank{
		http:   &http.Client{},
		apiKey: apiKey,
		base:   strings.TrimRight(baseURL, "/"),
	}
}

// FetchQuestions returns the question list for a session. Every failure
// path degrades to DefaultQuestions; callers never see an error.
func (b *HTTPBank) FetchQuestions(ctx context.Context, sessionID, jobID string) []types.Question {
	qs, err := b.fetch(ctx, sessionID, jobID)
	if err != nil {
		log.Printf("[questions] fetch failed, using built-in defaults: %v", err)
		return DefaultQuestions()
	}
	if err := Validate(qs); err != nil {
		log.Printf("[questions] invalid question list, using built-in defaults: %v", err)
		return DefaultQuestions()
	}
	return qs
}

func (b *HTTPBank) fetch(ctx context.Context, sessionID, jobID string) ([]types.Question, error) {
	if b.base == "" {
		return nil, fmt.Errorf("question bank not configured")
	}
	url := fmt.Sprintf("%s/jobs/%s/questions?session_id=%s", b.base, jobID, sessionID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("question bank: %s: %s", resp.Status, string(body))
	}
	var parsed struct {
		Questions []types.Question `json:"questions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Questions, nil
}

// Validate checks the list is non-empty, 0-based contiguous, and that
// every question has text and at least one evaluation criterion.
func Validate(qs []types.Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("empty question list")
	}
	for i, q := range qs {
		if q.Index != i {
			return fmt.Errorf("question %d has index %d, want contiguous 0-based indices", i, q.Index)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d has empty text", i)
		}
		if len(q.Criteria) == 0 {
			return fmt.Errorf("question %d has no evaluation criteria", i)
		}
	}
	return nil
}

// DefaultQuestions is the built-in fallback script used when the bank is
// unavailable.
func DefaultQuestions() []types.Question {
	return []types.Question{
		{Index: 0, Round: "introduction", Text: "Tell me about yourself and your professional background.", Criteria: []string{"clarity", "relevance"}},
		{Index: 1, Round: "experience", Text: "Describe a challenging project you worked on and how you handled it.", Criteria: []string{"problem solving", "ownership"}},
		{Index: 2, Round: "experience", Text: "Tell me about a time you disagreed with a teammate and how you resolved it.", Criteria: []string{"communication", "collaboration"}},
		{Index: 3, Round: "motivation", Text: "Why are you interested in this role, and what do you hope to learn?", Criteria: []string{"motivation", "fit"}},
	}
}
