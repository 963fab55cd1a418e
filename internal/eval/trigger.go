// Package eval talks to the downstream evaluation and reporting services.
// Evaluation submission is fire-and-forget and fires unconditionally on
// termination, partial transcript or not. Completion reporting shapes
// user-facing messaging and never blocks termination.
package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type Trigger interface {
	Submit(sessionID, transcript, companyContext string)
}

type Reporter interface {
	MarkCompleted(ctx context.Context, sessionID, transcript string, startedAt time.Time) (CompletionResult, error)
}

// CompletionResult is the downstream verdict on a finished session.
type CompletionResult struct {
	Incomplete bool     `json:"incomplete"`
	Reasons    []string `json:"reasons,omitempty"`
}

type HTTPClient struct {
	http      *http.Client
	evalURL   string
	reportURL string
}

func NewHTTPClient(evalURL, reportURL string) *HTTPClient {
	return &HTTPClient{
		http:      &http.Client{Timeout: 15 * time.Second},
		evalURL:   evalURL,
		reportURL: reportURL,
	}
}

// Submit posts the transcript for scoring in the background. Downstream
// must tolerate partial transcripts; we only log failures here.
func (c *HTTPClient) Submit(sessionID, transcript, companyContext string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.submit(ctx, sessionID, transcript, companyContext); err != nil {
			log.Printf("[eval] submit failed sid=%s: %v", sessionID, err)
			return
		}
		log.Printf("[eval] evaluation triggered sid=%s transcript_bytes=%d", sessionID, len(transcript))
	}()
}

func (c *HTTPClient) submit(ctx context.Context, sessionID, transcript, companyContext string) error {
	if c.evalURL == "" {
		return fmt.Errorf("evaluation endpoint not configured")
	}
	body := map[string]any{
		"session_id":      sessionID,
		"transcript":      transcript,
		"company_context": companyContext,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.evalURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("eval submit: %s: %s", resp.Status, string(b))
	}
	return nil
}

// MarkCompleted reports termination and returns whether downstream judged
// the interview incomplete, with reasons for user-facing messaging.
func (c *HTTPClient) MarkCompleted(ctx context.Context, sessionID, transcript string, startedAt time.Time) (CompletionResult, error) {
	if c.reportURL == "" {
		return CompletionResult{}, fmt.Errorf("completion report endpoint not configured")
	}
	body := map[string]any{
		"session_id": sessionID,
		"transcript": transcript,
		"started_at": startedAt.UTC(),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return CompletionResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.reportURL, &buf)
	if err != nil {
		return CompletionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return CompletionResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return CompletionResult{}, fmt.Errorf("mark completed: %s: %s", resp.Status, string(b))
	}
	var out CompletionResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CompletionResult{}, err
	}
	return out, nil
}
