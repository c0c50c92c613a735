package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	// Role descriptors for the built-in agents.
	PrimaryRole = "A top-tier AI assistant that can see and control the user's computer to accomplish any task."
	TutorRole   = "A specialized 'Tutor' agent that learns new skills by researching online and synthesizes the knowledge into actionable plans."
)

type Config struct {
	LLMBackend   string // "ollama" or "gemini"
	Model        string
	VisionModel  string
	OllamaHost   string
	GeminiAPIKey string

	MaxIterations int
	StepTimeoutMs int

	CaptureCommand string
	InputDryRun    bool

	SkillsDir string
	LogLevel  string
	LogFile   string
}

// FromEnv reads CHIMERA_* variables (typically loaded from .env) and fills
// in defaults for everything unset.
func FromEnv() Config {
	return Config{
		LLMBackend:   envOr("CHIMERA_LLM_BACKEND", "ollama"),
		Model:        envOr("CHIMERA_MODEL", "llama3:8b-instruct"),
		VisionModel:  envOr("CHIMERA_VISION_MODEL", "llava"),
		OllamaHost:   os.Getenv("OLLAMA_HOST"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		MaxIterations: envIntOr("CHIMERA_MAX_ITERATIONS", 10),
		StepTimeoutMs: envIntOr("CHIMERA_STEP_TIMEOUT_MS", 30000),

		CaptureCommand: envOr("CHIMERA_CAPTURE_CMD", "import -silent -window root png:-"),
		InputDryRun:    envBool("CHIMERA_INPUT_DRY_RUN"),

		SkillsDir: envOr("CHIMERA_SKILLS_DIR", "skills"),
		LogLevel:  envOr("CHIMERA_LOG_LEVEL", "info"),
		LogFile:   os.Getenv("CHIMERA_LOG_FILE"),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
