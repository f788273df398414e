// Package config assembles the typed application configuration from the
// layered YAML loader plus environment overrides.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"pmes/internal/core/progress"
	pkgconfig "pmes/pkg/config"
)

// Duration parses yaml durations in time.ParseDuration form ("1h30m").
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

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SweepConfig controls the scheduled delay sweep.
type SweepConfig struct {
	Interval     Duration `yaml:"interval"`
	RunTimeout   Duration `yaml:"run_timeout"`
	DedupTTL     Duration `yaml:"dedup_ttl"`
	RunOnStartup bool     `yaml:"run_on_startup"`
}

// WeightsConfig is the division split of overall progress.
type WeightsConfig struct {
	Timeline float64 `yaml:"timeline"`
	Budget   float64 `yaml:"budget"`
	Physical float64 `yaml:"physical"`
}

// Config is the full application configuration shared by all three
// processes; each binary reads the sections it needs.
type Config struct {
	Server  pkgconfig.ServerConfig `yaml:"server"`
	DB      pkgconfig.DBConfig     `yaml:"db"`
	MQ      pkgconfig.MQConfig     `yaml:"mq"`
	Redis   pkgconfig.RedisConfig  `yaml:"redis"`
	JWT     pkgconfig.JWTConfig    `yaml:"jwt"`
	Sweep   SweepConfig            `yaml:"sweep"`
	Weights WeightsConfig          `yaml:"weights"`
}

// Load reads the layered configuration for the current environment and
// applies environment-variable overrides. Division weights must sum to 100
// or loading fails.
func Load(configDir string) (*Config, error) {
	env := pkgconfig.GetConfigEnv()

	raw, err := pkgconfig.LoadConfig(env, configDir)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)

	if err := cfg.ProgressWeights().Validate(); err != nil {
		return nil, fmt.Errorf("invalid division weights: %w", err)
	}

	return cfg, nil
}

// ProgressWeights converts the configured split into aggregator weights.
func (c *Config) ProgressWeights() progress.Weights {
	return progress.Weights{
		Timeline: c.Weights.Timeline,
		Budget:   c.Weights.Budget,
		Physical: c.Weights.Physical,
	}
}

func defaults() *Config {
	w := progress.DefaultWeights()
	return &Config{
		Server: pkgconfig.ServerConfig{Port: "8080"},
		Sweep: SweepConfig{
			Interval:   Duration(1 * time.Hour),
			RunTimeout: Duration(10 * time.Minute),
			DedupTTL:   Duration(7 * 24 * time.Hour),
		},
		Weights: WeightsConfig{
			Timeline: w.Timeline,
			Budget:   w.Budget,
			Physical: w.Physical,
		},
	}
}

func decode(raw map[string]interface{}, cfg *Config) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
