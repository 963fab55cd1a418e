// Package screenshot uploads best-effort session snapshots. Failures are
// logged and never block the session.
package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
)

type Sink interface {
	Upload(ctx context.Context, sessionID string, image []byte, tag string) error
}

type HTTPSink struct {
	http *http.Client
	base string
}

func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{http: &http.Client{}, base: baseURL}
}

func (s *HTTPSink) Upload(ctx context.Context, sessionID string, image []byte, tag string) error {
	if s.base == "" {
		return fmt.Errorf("screenshot sink not configured")
	}
	url := fmt.Sprintf("%s?session_id=%s&tag=%s", s.base, sessionID, tag)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(image))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("screenshot upload: %s: %s", resp.Status, string(b))
	}
	return nil
}

// NopSink discards uploads; used when no sink is configured.
type NopSink struct{}

func (NopSink) Upload(ctx context.Context, sessionID string, image []byte, tag string) error {
	log.Printf("[screenshot] sink not configured, dropping %s for sid=%s", tag, sessionID)
	return nil
}
