package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Model backend credentials. Any of these may be empty, in which
	// case the matching backend degrades to mock synthesis.
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GeminiAPIKey    string

	// BaselineModel names the model family that produced run 1.
	BaselineModel string

	// ReplicateDelay is the minimum spacing between successive calls to
	// the same external provider during replication.
	ReplicateDelay time.Duration

	// ReplicateConcurrency bounds how many personas are replicated in
	// parallel within one target model.
	ReplicateConcurrency int
}

// ParseFlags validates flags and sets defaults
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var delayMS int

	fs := flag.NewFlagSet("mirrorpanel", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Simulation config
	fs.StringVar(&cfg.BaselineModel, "baseline-model", "", "Model family that generated run 1")
	fs.IntVar(&delayMS, "replicate-delay", -1, "Per-provider delay between model calls, in ms")
	fs.IntVar(&cfg.ReplicateConcurrency, "replicate-concurrency", 0, "Personas replicated in parallel per model")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.OpenAIAPIKey, "openai-key", "", "OpenAI API key (prefer env)")
	fs.StringVar(&cfg.AnthropicAPIKey, "anthropic-key", "", "Anthropic API key (prefer env)")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-key", "", "Gemini API key (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3419 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.BaselineModel == "" {
		cfg.BaselineModel = os.Getenv("BASELINE_MODEL")
		if cfg.BaselineModel == "" {
			cfg.BaselineModel = "OpenAI"
		}
	}

	if delayMS < 0 {
		if delayStr := os.Getenv("REPLICATE_DELAY_MS"); delayStr != "" {
			var err error
			delayMS, err = strconv.Atoi(delayStr)
			if err != nil || delayMS < 0 {
				return Config{}, errors.New("invalid REPLICATE_DELAY_MS env variable")
			}
		} else {
			delayMS = 2000 // matches third-party rate limit expectations
		}
	}
	cfg.ReplicateDelay = time.Duration(delayMS) * time.Millisecond

	if cfg.ReplicateConcurrency == 0 {
		if cStr := os.Getenv("REPLICATE_CONCURRENCY"); cStr != "" {
			c, err := strconv.Atoi(cStr)
			if err != nil || c < 1 {
				return Config{}, errors.New("invalid REPLICATE_CONCURRENCY env variable")
			}
			cfg.ReplicateConcurrency = c
		} else {
			cfg.ReplicateConcurrency = 1
		}
	}
	if cfg.ReplicateConcurrency < 1 {
		return Config{}, errors.New("replicate-concurrency must be at least 1")
	}

	// Secrets - onl present when the operator has real provider access
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}
