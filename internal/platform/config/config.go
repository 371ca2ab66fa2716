// Package config loads kycflow configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// KYCFLOW_* environment variables where "." in a key becomes "_"
// (agents.timeout is KYCFLOW_AGENTS_TIMEOUT). Durations are strings such
// as "30s".
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kycflow/internal/agent"
	"kycflow/internal/aggregation"
	"kycflow/internal/kyc/archive"
	"kycflow/internal/kyc/models"
	"kycflow/internal/platform/kafka"
	"kycflow/internal/result"
	"kycflow/internal/workflow"
)

const EnvPrefix = "KYCFLOW"

// Config is the root of the configuration tree.
type Config struct {
	Server      Server             `mapstructure:"server"`
	Log         Log                `mapstructure:"log"`
	Agents      Agents             `mapstructure:"agents"`
	Workflow    workflow.Config    `mapstructure:"workflow"`
	Aggregation aggregation.Config `mapstructure:"aggregation"`
	Result      result.Config      `mapstructure:"result"`
	Workers     Workers            `mapstructure:"workers"`
	Postgres    PostgresConfig     `mapstructure:"postgres"`
	Redis       RedisConfig        `mapstructure:"redis"`
	Kafka       kafka.Config       `mapstructure:"kafka"`
	Archive     archive.Config     `mapstructure:"archive"`
}

// Server captures HTTP server level configuration. WriteTimeout stays zero
// by default so the result stream is not cut off.
type Server struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AgentEndpoint addresses one agent. A zero Timeout inherits Agents.Timeout.
type AgentEndpoint struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Breaker struct {
	Enabled          bool          `mapstructure:"enabled"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// Agents configures the step agents and the optional data-quality agent.
type Agents struct {
	Timeout              time.Duration `mapstructure:"timeout"`
	Breaker              Breaker       `mapstructure:"breaker"`
	DocumentVerification AgentEndpoint `mapstructure:"document_verification"`
	BiometricMatch       AgentEndpoint `mapstructure:"biometric_match"`
	DataIntegration      AgentEndpoint `mapstructure:"data_integration"`
	WatchlistScreening   AgentEndpoint `mapstructure:"watchlist_screening"`
	QualityAssurance     AgentEndpoint `mapstructure:"quality_assurance"`
	DataQuality          AgentEndpoint `mapstructure:"data_quality"`
}

// Endpoints returns the step endpoints keyed by step.
func (a Agents) Endpoints() map[models.StepName]agent.Endpoint {
	return map[models.StepName]agent.Endpoint{
		models.StepDocumentVerification: a.endpoint(string(models.StepDocumentVerification), a.DocumentVerification),
		models.StepBiometricMatch:       a.endpoint(string(models.StepBiometricMatch), a.BiometricMatch),
		models.StepDataIntegration:      a.endpoint(string(models.StepDataIntegration), a.DataIntegration),
		models.StepWatchlistScreening:   a.endpoint(string(models.StepWatchlistScreening), a.WatchlistScreening),
		models.StepQualityAssurance:     a.endpoint(string(models.StepQualityAssurance), a.QualityAssurance),
	}
}

// QualityEndpoint returns the data-quality agent and whether one is configured.
func (a Agents) QualityEndpoint() (agent.Endpoint, bool) {
	if a.DataQuality.URL == "" {
		return agent.Endpoint{}, false
	}
	return a.endpoint("data-quality", a.DataQuality), true
}

// HealthEndpoints lists every configured agent in workflow order.
func (a Agents) HealthEndpoints() []agent.Endpoint {
	steps := a.Endpoints()
	var out []agent.Endpoint
	for _, step := range models.WorkflowOrder() {
		if ep := steps[step]; ep.URL != "" {
			out = append(out, ep)
		}
	}
	if ep, ok := a.QualityEndpoint(); ok {
		out = append(out, ep)
	}
	return out
}

func (a Agents) endpoint(name string, ep AgentEndpoint) agent.Endpoint {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = a.Timeout
	}
	return agent.Endpoint{Name: name, URL: strings.TrimRight(ep.URL, "/"), Timeout: timeout}
}

type Workers struct {
	Concurrency int `mapstructure:"concurrency"`
}

// PostgresConfig selects the durable stores. An empty URL keeps results in memory.
type PostgresConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	Migrate      bool   `mapstructure:"migrate"`
}

// RedisConfig configures the status tracker and case claims. An empty URL
// keeps both in memory.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StatusTTL    time.Duration `mapstructure:"status_ttl"`
	ClaimTTL     time.Duration `mapstructure:"claim_ttl"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Agents: Agents{
			Timeout: agent.DefaultTimeout,
			Breaker: Breaker{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Cooldown:         30 * time.Second,
			},
			DocumentVerification: AgentEndpoint{URL: "http://localhost:8001"},
			BiometricMatch:       AgentEndpoint{URL: "http://localhost:8002"},
			DataIntegration:      AgentEndpoint{URL: "http://localhost:8003"},
			WatchlistScreening:   AgentEndpoint{URL: "http://localhost:8004"},
			QualityAssurance:     AgentEndpoint{URL: "http://localhost:8005"},
		},
		Workflow:    workflow.DefaultConfig(),
		Aggregation: aggregation.DefaultConfig(),
		Result:      result.DefaultConfig(),
		Workers:     Workers{Concurrency: 8},
		Postgres: PostgresConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			Migrate:      true,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			StatusTTL:    24 * time.Hour,
			ClaimTTL:     24 * time.Hour,
		},
		Kafka: kafka.Config{
			Group:             "kycflow",
			FeedbackGroup:     "kycflow-feedback",
			Source:            "kycflow",
			Topics:            kafka.Topics{Request: "kyc_request", Result: "kyc_result", Feedback: "kyc_feedback"},
			Partitions:        1,
			ReplicationFactor: 1,
			DialTimeout:       10 * time.Second,
		},
		Archive: archive.Config{Prefix: "kyc-results"},
	}
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, "", reflect.ValueOf(Default()))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every leaf of val under its mapstructure key. Viper
// only binds environment variables for keys it already knows.
func setDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			setDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

// Validate rejects settings no component could run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Agents.Timeout <= 0 {
		errs = append(errs, errors.New("agents.timeout must be positive"))
	}
	if g := c.Workflow.Gate.Threshold; g < 0 || g > 1 {
		errs = append(errs, fmt.Errorf("workflow.gate.threshold must be within [0,1], got %v", g))
	}
	if c.Workflow.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("workflow.retry.max_attempts must be at least 1"))
	}
	if c.Workers.Concurrency < 1 {
		errs = append(errs, errors.New("workers.concurrency must be at least 1"))
	}
	if c.Result.Costs.Manual < 0 || c.Result.Costs.Automated < 0 {
		errs = append(errs, errors.New("result.costs must not be negative"))
	}
	if c.Kafka.Enabled() && (c.Kafka.Topics.Request == "" || c.Kafka.Topics.Result == "" || c.Kafka.Topics.Feedback == "") {
		errs = append(errs, errors.New("kafka.topics must name request, result and feedback topics"))
	}
	if err := c.Aggregation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("aggregation: %w", err))
	}
	return errors.Join(errs...)
}
