package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string

	OpenAIAPIKey  string
	AIModel       string
	AIMaxTokens   int
	AITemperature float64
	AITimeout     time.Duration

	ExtractionPollInterval time.Duration
	ExtractionPollTimeout  time.Duration

	DecisionStrategy      string
	DecisionMissingPolicy string
	// DecisionWeights maps dimension names to composite weights, parsed
	// from "accuracy=1.5,clarity=1" style configuration.
	DecisionWeights     map[string]float64
	DecisionTopK        int
	AutoReleaseOnDecide bool

	SweepInterval    time.Duration
	SweepThrottle    time.Duration
	SweepMaxChapters int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ADHYAYAN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Adhyayan API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "adhyayan")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 512)
	v.SetDefault("ai.temperature", 0.0)
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("extraction.poll_interval", "5s")
	v.SetDefault("extraction.poll_timeout", "5m")
	v.SetDefault("decision.strategy", "weighted_average")
	v.SetDefault("decision.missing_policy", "ignore")
	v.SetDefault("decision.top_k", 10)
	v.SetDefault("decision.auto_release", false)
	v.SetDefault("sweep.interval", "1m")
	v.SetDefault("sweep.throttle", "30s")
	v.SetDefault("sweep.max_chapters", 100)

	aiTimeout, err := parseDuration(v.GetString("ai.timeout"), "ai timeout")
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := parseDuration(v.GetString("extraction.poll_interval"), "extraction poll interval")
	if err != nil {
		return Config{}, err
	}
	pollTimeout, err := parseDuration(v.GetString("extraction.poll_timeout"), "extraction poll timeout")
	if err != nil {
		return Config{}, err
	}
	sweepInterval, err := parseDuration(v.GetString("sweep.interval"), "sweep interval")
	if err != nil {
		return Config{}, err
	}
	sweepThrottle, err := parseDuration(v.GetString("sweep.throttle"), "sweep throttle")
	if err != nil {
		return Config{}, err
	}

	weights, err := parseWeights(v.GetString("decision.weights"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),
		NATSSubject: v.GetString("nats.subject"),

		OpenAIAPIKey:  v.GetString("openai_api_key"),
		AIModel:       v.GetString("ai.model"),
		AIMaxTokens:   v.GetInt("ai.max_tokens"),
		AITemperature: v.GetFloat64("ai.temperature"),
		AITimeout:     aiTimeout,

		ExtractionPollInterval: pollInterval,
		ExtractionPollTimeout:  pollTimeout,

		DecisionStrategy:      strings.ToLower(v.GetString("decision.strategy")),
		DecisionMissingPolicy: strings.ToLower(v.GetString("decision.missing_policy")),
		DecisionWeights:       weights,
		DecisionTopK:          v.GetInt("decision.top_k"),
		AutoReleaseOnDecide:   v.GetBool("decision.auto_release"),

		SweepInterval:    sweepInterval,
		SweepThrottle:    sweepThrottle,
		SweepMaxChapters: v.GetInt("sweep.max_chapters"),
	}

	return cfg, nil
}

func parseDuration(value, label string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", label, err)
	}
	return d, nil
}

// parseWeights accepts "accuracy=1.5,clarity=1" and returns the weight map.
// An empty string yields an empty map, which leaves every weight at 1.0.
func parseWeights(raw string) (map[string]float64, error) {
	weights := make(map[string]float64)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return weights, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid decision weight %q", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid decision weight %q: %w", pair, err)
		}
		weights[strings.TrimSpace(parts[0])] = value
	}
	return weights, nil
}
