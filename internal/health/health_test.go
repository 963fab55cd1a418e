package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hire-genai/Hire-genAi-sub000/internal/config"
)

func TestBuiltInQuestionsCountAsHealthy(t *testing.T) {
	var cfg config.Config
	res := checkQuestionBank(context.Background(), cfg)
	if !res.OK {
		t.Fatalf("missing bank URL should be healthy via built-ins: %+v", res)
	}
}

func TestQuestionBankProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.QuestionBank.BaseURL = srv.URL
	res := checkQuestionBank(context.Background(), cfg)
	if !res.OK {
		t.Fatalf("expected healthy bank: %+v", res)
	}
}

func TestEvaluationProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.Downstream.EvalURL = srv.URL
	res := checkEvaluation(context.Background(), cfg)
	if res.OK {
		t.Fatalf("500 from evaluation must fail the probe")
	}

	status := CheckAll(context.Background(), cfg)
	if status.OK {
		t.Fatalf("combined status must fail when one check fails")
	}
}
