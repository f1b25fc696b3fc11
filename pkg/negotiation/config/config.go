// Package config loads the negotiation engine's process configuration:
// provider credentials, engine timeouts and round budgets, and ambient
// logging/server settings, from a YAML file with ${VAR} environment
// expansion and .env support.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/demandmesh/negotiator/pkg/negotiation/protocol"
)

// ProviderConfig is the generic shape of an LLM/embedder/vectorstore
// provider block: a discriminating Type plus provider-specific fields
// decoded on demand by the builder layer.
type ProviderConfig struct {
	Type   string         `yaml:"type"`
	Model  string         `yaml:"model,omitempty"`
	APIKey string         `yaml:"api_key,omitempty"`
	Extra  map[string]any `yaml:",inline"`
}

// EngineConfig holds the round budgets and timeouts §5/§6 of the spec name
// as caller-tunable.
type EngineConfig struct {
	KStar               int           `yaml:"k_star"`
	MaxCenterRounds     int           `yaml:"max_center_rounds"`
	OfferTimeout        time.Duration `yaml:"offer_timeout"`
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`
	AwaitConfirmation   bool          `yaml:"await_confirmation"`
}

// LoggerConfig configures the process-wide slog logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the optional HTTP/RPC surface layered on top of
// the engine — out of scope for the engine itself, carried here only so a
// single file configures the whole process.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration structure.
type Config struct {
	Name        string                    `yaml:"name,omitempty"`
	LLM         ProviderConfig            `yaml:"llm"`
	Embedder    ProviderConfig            `yaml:"embedder"`
	VectorStore ProviderConfig            `yaml:"vector_store"`
	Events      ProviderConfig            `yaml:"events"`
	Engine      EngineConfig              `yaml:"engine"`
	Logger      LoggerConfig              `yaml:"logger"`
	Server      ServerConfig              `yaml:"server"`
	Agents      map[string]map[string]any `yaml:"agents,omitempty"`
}

// SetDefaults fills in the zero-value fields with the defaults §4 of the
// spec specifies.
func (c *Config) SetDefaults() {
	if c.Engine.KStar == 0 {
		c.Engine.KStar = 5
	}
	if c.Engine.MaxCenterRounds == 0 {
		c.Engine.MaxCenterRounds = 2
	}
	if c.Engine.OfferTimeout == 0 {
		c.Engine.OfferTimeout = 30 * time.Second
	}
	if c.Engine.ConfirmationTimeout == 0 {
		c.Engine.ConfirmationTimeout = 300 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate reports missing required fields. It never validates
// reachability of external services — only shape.
func (c *Config) Validate() error {
	if c.LLM.Type == "" {
		return protocol.NewConfigError("llm.type is required")
	}
	if c.Embedder.Type == "" {
		return protocol.NewConfigError("embedder.type is required")
	}
	if c.Engine.KStar < 0 {
		return protocol.NewConfigError("engine.k_star must be >= 0")
	}
	if c.Engine.MaxCenterRounds <= 0 {
		return protocol.NewConfigError("engine.max_center_rounds must be > 0")
	}
	return nil
}

// Load reads path, expands ${VAR}/$VAR references against the process
// environment (after loading envFile if it exists), and decodes the result
// into a validated Config.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: loading env file %s: %w", envFile, err)
			}
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	expanded := expandEnvVars(parsed)

	cfg := &Config{}
	if err := decodeConfig(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

func decodeConfig(input map[string]any, output *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	return decoder.Decode(input)
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvVars(input map[string]any) map[string]any {
	result := make(map[string]any, len(input))
	for k, v := range input {
		result[k] = expandValue(v)
	}
	return result
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		return expandEnvString(val)
	case map[string]any:
		return expandEnvVars(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = expandValue(item)
		}
		return result
	default:
		return v
	}
}

func expandEnvString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}
