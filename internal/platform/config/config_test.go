package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("PROCESSOR_WEBHOOK_SECRET", "whsec")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.15").Equal(cfg.HostFeeRate))
	assert.True(t, cfg.DepositFeeRate.IsZero())
	assert.Equal(t, 10*time.Second, cfg.ProcessorTimeout)
	assert.Equal(t, 336*time.Hour, cfg.DepositClaimWindow)
	assert.Equal(t, "100-M", cfg.RateLimit)
	assert.True(t, cfg.UsesStubProcessor())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadConfig_Overrides(t *testing.T) {
	viper.Reset()
	t.Setenv("HOST_FEE_RATE", "0.2")
	t.Setenv("PROCESSOR_TIMEOUT", "3s")
	t.Setenv("PROCESSOR_BASE_URL", "https://processor.example/")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("HOLD_POLL_INTERVAL", "bogus")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.2").Equal(cfg.HostFeeRate))
	assert.Equal(t, 3*time.Second, cfg.ProcessorTimeout)
	assert.Equal(t, "https://processor.example", cfg.ProcessorBaseURL)
	assert.False(t, cfg.UsesStubProcessor())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Minute, cfg.HoldPollInterval)
}

func TestLoadConfig_RejectsInvalidRate(t *testing.T) {
	viper.Reset()
	t.Setenv("HOST_FEE_RATE", "1.5")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOST_FEE_RATE")
}

func TestLoadConfig_ProductionRequiresSecrets(t *testing.T) {
	viper.Reset()
	t.Setenv("IS_PRODUCTION", "true")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
