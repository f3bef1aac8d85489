package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/weather-chat/backend/internal/logger"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
)

// DefaultEndpoint is the local agent server started by the dev tooling.
const DefaultEndpoint = "http://localhost:4111/api/agents/weatherAgent/stream"

// Config groups every setting of the server and the terminal client.
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Agent  AgentConfig   `yaml:"agent"`
	Log    logger.Config `yaml:"log"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AgentConfig describes the remote agent and the request overrides.
type AgentConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	AgentID       string        `yaml:"agentId"`
	ThreadID      string        `yaml:"threadId"`
	Options       agent.Options `yaml:"options"`
	Timeout       time.Duration `yaml:"timeout"`
	Structured    bool          `yaml:"structured"`
	DevPlayground bool          `yaml:"devPlayground"`
}

// Load reads the optional YAML file named by CONFIG_FILE and then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyServerEnv(&cfg.Server); err != nil {
		return nil, err
	}
	if err := applyAgentEnv(&cfg.Agent); err != nil {
		return nil, err
	}
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Dir = getEnvOrDefault("LOG_DIR", cfg.Log.Dir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Agent: AgentConfig{
			Endpoint:   DefaultEndpoint,
			AgentID:    agentModel.DefaultID,
			Timeout:    2 * time.Minute,
			Structured: true,
		},
		Log: logger.Config{Level: "info"},
	}
}

func (c *Config) validate() error {
	if c.Agent.Endpoint == "" {
		return fmt.Errorf("agent endpoint is required")
	}
	if c.Agent.Timeout < 0 {
		return fmt.Errorf("invalid agent timeout %s", c.Agent.Timeout)
	}
	if t := c.Agent.Options.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("temperature %v out of range [0, 2]", *t)
	}
	if p := c.Agent.Options.TopP; p != nil && (*p <= 0 || *p > 1) {
		return fmt.Errorf("topP %v out of range (0, 1]", *p)
	}
	return nil
}

// applyServerEnv parses the listen address from PORT.
func applyServerEnv(server *ServerConfig) error {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return nil
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		server.Addr = port
		return nil
	}

	if strings.Contains(port, " ") {
		return fmt.Errorf("invalid PORT value: %q", port)
	}

	server.Addr = ":" + port
	return nil
}

func applyAgentEnv(a *AgentConfig) error {
	a.Endpoint = getEnvOrDefault("WEATHER_AGENT_URL", a.Endpoint)
	a.AgentID = getEnvOrDefault("WEATHER_AGENT_ID", a.AgentID)
	a.ThreadID = getEnvOrDefault("WEATHER_THREAD_ID", a.ThreadID)

	temperature, err := parseOptionalFloatEnv("WEATHER_TEMPERATURE")
	if err != nil {
		return err
	}
	if temperature != nil {
		a.Options.Temperature = temperature
	}

	topP, err := parseOptionalFloatEnv("WEATHER_TOP_P")
	if err != nil {
		return err
	}
	if topP != nil {
		a.Options.TopP = topP
	}

	maxRetries, err := parseOptionalIntEnv("WEATHER_MAX_RETRIES")
	if err != nil {
		return err
	}
	if maxRetries != nil {
		a.Options.MaxRetries = maxRetries
	}

	maxSteps, err := parseOptionalIntEnv("WEATHER_MAX_STEPS")
	if err != nil {
		return err
	}
	if maxSteps != nil {
		a.Options.MaxSteps = maxSteps
	}

	if raw := strings.TrimSpace(os.Getenv("WEATHER_TIMEOUT")); raw != "" {
		timeout, err := parseTimeout(raw)
		if err != nil {
			return fmt.Errorf("invalid WEATHER_TIMEOUT value %q: %w", raw, err)
		}
		a.Timeout = timeout
	}

	if a.Structured, err = parseBoolEnv("WEATHER_STRUCTURED", a.Structured); err != nil {
		return err
	}
	if a.DevPlayground, err = parseBoolEnv("WEATHER_DEV_PLAYGROUND", a.DevPlayground); err != nil {
		return err
	}
	return nil
}

// parseTimeout accepts whole seconds or a duration string.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
