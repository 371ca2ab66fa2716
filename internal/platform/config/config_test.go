package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/kyc/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, Default().Agents, cfg.Agents)
	assert.Equal(t, Default().Aggregation, cfg.Aggregation)
	assert.Equal(t, 0.6, cfg.Workflow.Gate.Threshold)
	assert.Equal(t, "kyc_request", cfg.Kafka.Topics.Request)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("KYCFLOW_SERVER_ADDR", ":9090")
	t.Setenv("KYCFLOW_AGENTS_TIMEOUT", "12s")
	t.Setenv("KYCFLOW_WORKFLOW_GATE_THRESHOLD", "0.75")
	t.Setenv("KYCFLOW_AGGREGATION_WEIGHTS_WATCHLIST", "0.5")
	t.Setenv("KYCFLOW_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KYCFLOW_LOG_FORMAT", "text")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 12*time.Second, cfg.Agents.Timeout)
	assert.Equal(t, 0.75, cfg.Workflow.Gate.Threshold)
	assert.Equal(t, 0.5, cfg.Aggregation.Weights.Watchlist)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kycflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agents:
  watchlist_screening:
    url: http://watchlist:9000/
    timeout: 45s
workers:
  concurrency: 3
result:
  costs:
    manual: 40
archive:
  bucket: kyc-archive
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers.Concurrency)
	assert.Equal(t, 40.0, cfg.Result.Costs.Manual)
	assert.Equal(t, 0.5, cfg.Result.Costs.Automated)
	assert.True(t, cfg.Archive.Enabled())
	assert.Equal(t, "kyc-results", cfg.Archive.Prefix)

	ep := cfg.Agents.Endpoints()[models.StepWatchlistScreening]
	assert.Equal(t, "http://watchlist:9000", ep.URL)
	assert.Equal(t, 45*time.Second, ep.Timeout)

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Setenv("KYCFLOW_WORKERS_CONCURRENCY", "5")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Workers.Concurrency)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"gate threshold", func(c *Config) { c.Workflow.Gate.Threshold = 1.5 }, "workflow.gate.threshold"},
		{"workers", func(c *Config) { c.Workers.Concurrency = 0 }, "workers.concurrency"},
		{"retry attempts", func(c *Config) { c.Workflow.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"negative weight", func(c *Config) { c.Aggregation.Weights.Biometric = -1 }, "aggregation"},
		{"kafka topics", func(c *Config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topics.Result = ""
		}, "kafka.topics"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	require.NoError(t, Default().Validate())
}

func TestAgentEndpoints(t *testing.T) {
	agents := Default().Agents
	agents.BiometricMatch.Timeout = 90 * time.Second

	eps := agents.Endpoints()
	require.Len(t, eps, 5)
	assert.Equal(t, agents.Timeout, eps[models.StepDocumentVerification].Timeout)
	assert.Equal(t, 90*time.Second, eps[models.StepBiometricMatch].Timeout)
	assert.Equal(t, string(models.StepQualityAssurance), eps[models.StepQualityAssurance].Name)

	_, ok := agents.QualityEndpoint()
	assert.False(t, ok)
	assert.Len(t, agents.HealthEndpoints(), 5)

	agents.DataQuality.URL = "http://quality:8006"
	agents.WatchlistScreening.URL = ""
	health := agents.HealthEndpoints()
	require.Len(t, health, 5)
	assert.Equal(t, "data-quality", health[4].Name)
}
