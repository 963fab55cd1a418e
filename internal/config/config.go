package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Agent struct {
		WSURL        string
		APIKey       string
		TokenSecret  string
		TokenExpMin  int
		TokenSkewSec int
		Greeting     string
	}
	Interview struct {
		MinAnswerWords     int
		MaxElaborations    int
		ClosingCountdownS  int
		UnmuteDelayMs      int
		ScreenshotGraceMs  int
		QuestionTimeoutS   int
		ClosingSentence    string
		SnapshotDir        string
	}
	QuestionBank struct {
		BaseURL string
		APIKey  string
	}
	Downstream struct {
		ScreenshotURL string
		EvalURL       string
		ReportURL     string
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("agent.token_exp_min", 720)
	v.SetDefault("agent.token_skew_sec", 60)
	v.SetDefault("agent.greeting", "Hi, I'm your AI interviewer. Can you hear and see me clearly? Let me know once your audio and video setup is working fine.")

	v.SetDefault("interview.min_answer_words", 30)
	v.SetDefault("interview.max_elaborations", 1)
	v.SetDefault("interview.closing_countdown_s", 20)
	v.SetDefault("interview.unmute_delay_ms", 300)
	v.SetDefault("interview.screenshot_grace_ms", 1200)
	// 0 keeps the legacy behavior of waiting indefinitely per question.
	v.SetDefault("interview.question_timeout_s", 0)
	v.SetDefault("interview.closing_sentence", "Thank you for interviewing with us today. The recruitment team will get back to you with the next steps shortly.")

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("agent.ws_url", "AGENT_WS_URL")
	v.BindEnv("agent.api_key", "AGENT_API_KEY")
	v.BindEnv("agent.token_secret", "AGENT_TOKEN_SECRET")
	v.BindEnv("agent.token_exp_min", "AGENT_TOKEN_EXP_MIN")
	v.BindEnv("agent.token_skew_sec", "AGENT_TOKEN_SKEW_SEC")
	v.BindEnv("agent.greeting", "AGENT_GREETING")

	v.BindEnv("interview.min_answer_words", "INTERVIEW_MIN_ANSWER_WORDS")
	v.BindEnv("interview.max_elaborations", "INTERVIEW_MAX_ELABORATIONS")
	v.BindEnv("interview.closing_countdown_s", "INTERVIEW_CLOSING_COUNTDOWN_S")
	v.BindEnv("interview.unmute_delay_ms", "INTERVIEW_UNMUTE_DELAY_MS")
	v.BindEnv("interview.screenshot_grace_ms", "INTERVIEW_SCREENSHOT_GRACE_MS")
	v.BindEnv("interview.question_timeout_s", "INTERVIEW_QUESTION_TIMEOUT_S")
	v.BindEnv("interview.closing_sentence", "INTERVIEW_CLOSING_SENTENCE")
	v.BindEnv("interview.snapshot_dir", "TRANSCRIPT_SNAPSHOT_DIR")

	v.BindEnv("questionbank.base_url", "QUESTION_BANK_URL")
	v.BindEnv("questionbank.api_key", "QUESTION_BANK_API_KEY")

	v.BindEnv("downstream.screenshot_url", "SCREENSHOT_SINK_URL")
	v.BindEnv("downstream.eval_url", "EVALUATION_URL")
	v.BindEnv("downstream.report_url", "COMPLETION_REPORT_URL")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Agent.WSURL = v.GetString("agent.ws_url")
	c.Agent.APIKey = v.GetString("agent.api_key")
	c.Agent.TokenSecret = v.GetString("agent.token_secret")
	c.Agent.TokenExpMin = v.GetInt("agent.token_exp_min")
	c.Agent.TokenSkewSec = v.GetInt("agent.token_skew_sec")
	c.Agent.Greeting = v.GetString("agent.greeting")

	c.Interview.MinAnswerWords = v.GetInt("interview.min_answer_words")
	c.Interview.MaxElaborations = v.GetInt("interview.max_elaborations")
	c.Interview.ClosingCountdownS = v.GetInt("interview.closing_countdown_s")
	c.Interview.UnmuteDelayMs = v.GetInt("interview.unmute_delay_ms")
	c.Interview.ScreenshotGraceMs = v.GetInt("interview.screenshot_grace_ms")
	c.Interview.QuestionTimeoutS = v.GetInt("interview.question_timeout_s")
	c.Interview.ClosingSentence = v.GetString("interview.closing_sentence")
	c.Interview.SnapshotDir = v.GetString("interview.snapshot_dir")

	c.QuestionBank.BaseURL = v.GetString("questionbank.base_url")
	c.QuestionBank.APIKey = v.GetString("questionbank.api_key")

	c.Downstream.ScreenshotURL = v.GetString("downstream.screenshot_url")
	c.Downstream.EvalURL = v.GetString("downstream.eval_url")
	c.Downstream.ReportURL = v.GetString("downstream.report_url")

	log.Printf("config loaded: port=%s agent_ws=%s question_bank=%s", c.Server.Port, c.Agent.WSURL, c.QuestionBank.BaseURL)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
