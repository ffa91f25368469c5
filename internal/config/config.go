package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Models    ModelsConfig    `yaml:"models"`
	Assistant AssistantConfig `yaml:"assistant"`
	Weather   WeatherConfig   `yaml:"weather"`
	Location  LocationConfig  `yaml:"location"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // gin mode: debug, release, test
}

type ModelsConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
	// FunctionModel interprets utterances into call descriptors;
	// AnswerModel produces user-facing text. Both are "provider/model" refs.
	FunctionModel string `yaml:"function_model"`
	AnswerModel   string `yaml:"answer_model"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	API     string `yaml:"api"`
}

type AssistantConfig struct {
	// Personality is the system role used for answer prompts. Empty means
	// one is picked at random from the built-in catalog on first use.
	Personality string `yaml:"personality"`
}

type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
	Units  string `yaml:"units"`
}

type LocationConfig struct {
	// Refresh is a cron spec for re-resolving the public location,
	// e.g. "@every 30m". Empty disables the refresh job.
	Refresh string `yaml:"refresh"`
}

type StoreConfig struct {
	Driver  string `yaml:"driver"` // "sqlite" (default) or "postgres"
	DataDir string `yaml:"data_dir"`
	DSN     string `yaml:"dsn"` // postgres only
}

type CacheConfig struct {
	RedisAddr string   `yaml:"redis_addr"` // empty disables the lookup cache
	TTL       Duration `yaml:"ttl"`
}

// Duration decodes yaml strings like "30s" or "6h" via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvSecrets(cfg *Config) {
	for name, p := range cfg.Models.Providers {
		p.BaseURL = expandEnv(p.BaseURL)
		p.APIKey = expandEnv(p.APIKey)
		cfg.Models.Providers[name] = p
	}
	cfg.Weather.APIKey = expandEnv(cfg.Weather.APIKey)
	cfg.Store.DSN = expandEnv(cfg.Store.DSN)
	cfg.Cache.RedisAddr = expandEnv(cfg.Cache.RedisAddr)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8917
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Weather.Units == "" {
		cfg.Weather.Units = "metric"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(6 * time.Hour)
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvSecrets(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that yaml decoding cannot.
func (c *Config) Validate() error {
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return fmt.Errorf("config: unknown store driver %q (supported: sqlite, postgres)", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("config: store.dsn is required when store.driver is postgres")
	}
	return nil
}
