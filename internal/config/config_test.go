package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()
	req.NoError(err)

	req.Equal(8080, cfg.Server.Port)
	req.Equal("sqlite", cfg.Database.Driver)
	req.Equal(30*time.Second, cfg.WebSocket.PingInterval)
	req.Equal(60*time.Second, cfg.WebSocket.PongWait)
	req.Equal(30*time.Second, cfg.Presence.SweepInterval)
	req.Equal(600*time.Second, cfg.Presence.AdminTTL)
	req.Empty(cfg.Kafka.Brokers)
	req.Equal("sitechat-events", cfg.Kafka.Topic)
}

func TestLoadEnvOverride(t *testing.T) {
	req := require.New(t)

	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "broker1:9092")

	cfg, err := Load()
	req.NoError(err)

	req.Equal(9090, cfg.Server.Port)
	req.Equal("broker1:9092", cfg.Kafka.Brokers)
}
