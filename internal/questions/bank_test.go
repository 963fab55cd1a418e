package questions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hire-genai/Hire-genAi-sub000/internal/types"
)

func TestFetchQuestionsFromBank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"questions":[
			{"index":0,"text":"Q one?","round":"r1","criteria":["a"]},
			{"index":1,"text":"Q two?","round":"r1","criteria":["b"]}
		]}`))
	}))
	defer srv.Close()

	b := NewHTTPBank(srv.URL, "key")
	qs := b.FetchQuestions(context.Background(), "s1", "job1")
	if len(qs) != 2 || qs[1].Text != "Q two?" {
		t.Fatalf("unexpected questions: %+v", qs)
	}
}

func TestFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewHTTPBank(srv.URL, "")
	qs := b.FetchQuestions(context.Background(), "s1", "job1")
	if len(qs) != len(DefaultQuestions()) {
		t.Fatalf("expected default fallback, got %d questions", len(qs))
	}
}

func TestFallbackOnUnconfiguredBank(t *testing.T) {
	b := NewHTTPBank("", "")
	qs := b.FetchQuestions(context.Background(), "s1", "job1")
	if len(qs) == 0 {
		t.Fatalf("fallback list must not be empty")
	}
}

func TestFallbackOnInvalidList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Non-contiguous indices
		w.Write([]byte(`{"questions":[{"index":3,"text":"Q?","criteria":["a"]}]}`))
	}))
	defer srv.Close()

	b := NewHTTPBank(srv.URL, "")
	qs := b.FetchQuestions(context.Background(), "s1", "job1")
	if qs[0].Index != 0 {
		t.Fatalf("expected default fallback on invalid list")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatalf("empty list must be invalid")
	}
	if err := Validate([]types.Question{{Index: 0, Text: "x", Criteria: []string{"c"}}}); err != nil {
		t.Fatalf("valid list rejected: %v", err)
	}
	if err := Validate([]types.Question{{Index: 0, Text: "x"}}); err == nil {
		t.Fatalf("missing criteria must be invalid")
	}
	if err := Validate(DefaultQuestions()); err != nil {
		t.Fatalf("default questions must validate: %v", err)
	}
}
