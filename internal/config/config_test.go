package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("INTERVIEW_MIN_ANSWER_WORDS")
	os.Unsetenv("INTERVIEW_CLOSING_COUNTDOWN_S")
	os.Unsetenv("INTERVIEW_QUESTION_TIMEOUT_S")

	c := Load()

	if c.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", c.Server.Port)
	}
	if c.Interview.MinAnswerWords != 30 {
		t.Fatalf("expected default min answer words 30, got %d", c.Interview.MinAnswerWords)
	}
	if c.Interview.MaxElaborations != 1 {
		t.Fatalf("expected default max elaborations 1, got %d", c.Interview.MaxElaborations)
	}
	if c.Interview.ClosingCountdownS != 20 {
		t.Fatalf("expected default closing countdown 20s, got %d", c.Interview.ClosingCountdownS)
	}
	if c.Interview.QuestionTimeoutS != 0 {
		t.Fatalf("expected question timeout disabled by default, got %d", c.Interview.QuestionTimeoutS)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("INTERVIEW_CLOSING_COUNTDOWN_S", "45")
	defer os.Unsetenv("INTERVIEW_CLOSING_COUNTDOWN_S")

	c := Load()
	if c.Interview.ClosingCountdownS != 45 {
		t.Fatalf("expected env override 45, got %d", c.Interview.ClosingCountdownS)
	}
}
