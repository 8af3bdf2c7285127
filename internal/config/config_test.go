package config

import (
	"context"
	"testing"
	"time"

	"instafeed/internal/ports/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/instafeed?parseTime=true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, "redis", cfg.EventBus)
	assert.Equal(t, 100, cfg.FeedWindow)
	assert.Equal(t, 10*time.Minute, cfg.FeedTTL)
	assert.Equal(t, 720*time.Hour, cfg.NotificationMaxAge)
	assert.Equal(t, ratelimit.Rule{Limit: 1000, Window: time.Minute}, cfg.RateLimitDefault)
	assert.Equal(t, ratelimit.Rule{Limit: 50, Window: time.Hour}, cfg.RateLimitRules["post"])
	assert.Len(t, cfg.RateLimitRules, 4)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("FEED_TIMEOUT", "750ms")
	t.Setenv("EVENT_BUS", "kafka")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	t.Setenv("RATE_LIMIT_RULES", "post=5/1m")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.FeedTimeout)
	assert.Equal(t, "kafka", cfg.EventBus)
	assert.Equal(t, map[string]ratelimit.Rule{"post": {Limit: 5, Window: time.Minute}}, cfg.RateLimitRules)
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BATCH_SIZE", "many")
	t.Setenv("EVENT_BUS", "kafka")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "")

	_, _, err := Load()
	require.Error(t, err)
	for _, want := range []string{"JWT_SECRET", "DB_DSN", "BATCH_SIZE", "KAFKA_BOOTSTRAP_SERVERS"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_RejectsZeroSizes(t *testing.T) {
	setRequired(t)
	t.Setenv("BATCH_SIZE", "0")
	t.Setenv("FEED_WINDOW", "0")
	t.Setenv("TRENDING_LIMIT", "0")
	t.Setenv("RATE_LIMIT_DEFAULT", "0")

	_, _, err := Load()
	require.Error(t, err)
	for _, want := range []string{"BATCH_SIZE", "FEED_WINDOW", "TRENDING_LIMIT", "RATE_LIMIT_DEFAULT"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_StreamConsumerIsStable(t *testing.T) {
	setRequired(t)

	first, _, err := Load()
	require.NoError(t, err)
	second, _, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, first.StreamConsumer)
	assert.Equal(t, first.StreamConsumer, second.StreamConsumer)

	t.Setenv("STREAM_CONSUMER", "worker-a")
	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "worker-a", cfg.StreamConsumer)
}

func TestParseRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    map[string]ratelimit.Rule
		wantErr bool
	}{
		{in: "", want: map[string]ratelimit.Rule{}},
		{in: "like=200/1h, follow=30/1h", want: map[string]ratelimit.Rule{
			"like":   {Limit: 200, Window: time.Hour},
			"follow": {Limit: 30, Window: time.Hour},
		}},
		{in: "post", wantErr: true},
		{in: "post=50", wantErr: true},
		{in: "post=0/1h", wantErr: true},
		{in: "post=5/soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRules(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInitRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := InitRedis(context.Background(), RedisConfig{Addr: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = InitRedis(context.Background(), RedisConfig{Addr: mr.Addr()}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
