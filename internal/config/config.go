package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tweet-agent/internal/logging"
)

const (
	GeneratorOpenAI  = "openai"
	GeneratorAgent   = "agent"
	GeneratorOffline = "offline"
)

// Settings is everything the entry points read from the environment.
type Settings struct {
	Host     string
	Port     string
	LogLevel string

	Generator         string
	GenerationPolicy  string
	GenerationTimeout time.Duration
	AgentProfilePath  string
	AgentURL          string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	Twitter TwitterCredentials

	// ParamPrefix switches secret lookup to SSM Parameter Store when set.
	ParamPrefix string
}

// TwitterCredentials are the OAuth 1.0a user-context keys for the X API.
type TwitterCredentials struct {
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}

// Complete reports whether all four keys are present.
func (c TwitterCredentials) Complete() bool {
	return c.AppKey != "" && c.AppSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// LoadEnv loads .env and .env.local into the process environment when present.
// .env never replaces variables that are already set; .env.local overrides
// both the process environment and .env.
func LoadEnv(logger logging.Logger) {
	files := []struct {
		name string
		load func(...string) error
	}{
		{name: ".env", load: godotenv.Load},
		{name: ".env.local", load: godotenv.Overload},
	}
	loaded := make([]string, 0, len(files))
	for _, f := range files {
		file := f.name
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := f.load(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
		return
	}
	logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
}

// Load reads Settings from the environment and validates enumerations.
func Load() (Settings, error) {
	timeout, err := GetEnvDuration("GENERATION_TIMEOUT", 30*time.Second)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Host:              GetEnv("HOST", "0.0.0.0"),
		Port:              GetEnv("PORT", "3000"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		Generator:         strings.ToLower(GetEnv("GENERATOR", GeneratorOpenAI)),
		GenerationPolicy:  strings.ToLower(GetEnv("GENERATION_POLICY", "fallback")),
		GenerationTimeout: timeout,
		AgentProfilePath:  GetEnv("AGENT_PROFILE", ""),
		AgentURL:          GetEnv("AGENT_URL", ""),
		OpenAIAPIKey:      GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       GetEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL:     GetEnv("OPENAI_BASE_URL", ""),
		Twitter: TwitterCredentials{
			AppKey:       GetEnv("TWITTER_APP_KEY", ""),
			AppSecret:    GetEnv("TWITTER_APP_SECRET", ""),
			AccessToken:  GetEnv("TWITTER_ACCESS_TOKEN", ""),
			AccessSecret: GetEnv("TWITTER_ACCESS_SECRET", ""),
		},
		ParamPrefix: strings.TrimRight(GetEnv("PARAM_PREFIX", ""), "/"),
	}
	switch s.Generator {
	case GeneratorOpenAI, GeneratorAgent, GeneratorOffline:
	default:
		return Settings{}, fmt.Errorf("config: GENERATOR must be one of openai, agent, offline (got %q)", s.Generator)
	}
	if s.Generator == GeneratorAgent && s.AgentURL == "" {
		return Settings{}, errors.New("config: AGENT_URL is required when GENERATOR=agent")
	}
	return s, nil
}

// Addr is the listen address for the HTTP server.
func (s Settings) Addr() string {
	return s.Host + ":" + s.Port
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration parses a Go duration, returning an error for malformed values.
func GetEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}

// AgentProfile configures the copywriting model.
type AgentProfile struct {
	Name         string   `yaml:"name"`
	Model        string   `yaml:"model"`
	Instructions []string `yaml:"instructions"`
}

// DefaultAgentProfile is used when no profile file is configured.
func DefaultAgentProfile() AgentProfile {
	return AgentProfile{
		Name:  "Tweety",
		Model: "gpt-4o-mini",
		Instructions: []string{
			"You are an expert social media copywriter.",
			"Write concise, engaging tweets that fit in 280 characters.",
			"Prefer clear language; avoid hashtags unless asked.",
			"If a call-to-action makes sense, add one short CTA.",
			"Do not include backticks or quotes around the tweet.",
		},
	}
}

// SystemPrompt joins the instruction lines into one system message.
func (p AgentProfile) SystemPrompt() string {
	return strings.Join(p.Instructions, " ")
}

// LoadAgentProfile reads a YAML profile. An empty path yields the default
// profile; fields missing from the file keep their defaults.
func LoadAgentProfile(path string) (AgentProfile, error) {
	profile := DefaultAgentProfile()
	path = strings.TrimSpace(path)
	if path == "" {
		return profile, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AgentProfile{}, fmt.Errorf("config: read agent profile: %w", err)
	}
	var fromFile AgentProfile
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return AgentProfile{}, fmt.Errorf("config: parse agent profile %s: %w", path, err)
	}
	if strings.TrimSpace(fromFile.Name) != "" {
		profile.Name = strings.TrimSpace(fromFile.Name)
	}
	if strings.TrimSpace(fromFile.Model) != "" {
		profile.Model = strings.TrimSpace(fromFile.Model)
	}
	if len(fromFile.Instructions) > 0 {
		profile.Instructions = fromFile.Instructions
	}
	return profile, nil
}
