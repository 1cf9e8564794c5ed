package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/hospitality-auth/internal/config"
)

func TestRedis_Probe(t *testing.T) {
	srv := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: srv.Addr()})
	defer r.Close()
	core, logs := observer.New(zapcore.InfoLevel)

	assert.True(t, r.Probe(context.Background(), zap.New(core)))
	assert.NoError(t, r.Ping(context.Background()))

	srv.Close()
	assert.False(t, r.Probe(context.Background(), zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessage("connected to redis").Len())
	assert.Equal(t, 1, logs.FilterMessage("unable to reach redis").Len())
}

func TestRedis_WaitReady(t *testing.T) {
	srv := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: srv.Addr()})
	defer r.Close()
	require.NoError(t, r.WaitReady(context.Background(), 3, time.Millisecond))

	srv.Close()
	err := r.WaitReady(context.Background(), 2, time.Millisecond)
	assert.ErrorContains(t, err, "unreachable after 2 attempts")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.WaitReady(ctx, 5, time.Hour), context.Canceled)
}

func TestNilHandles(t *testing.T) {
	var r *Redis
	var p *Postgres

	assert.Error(t, r.Ping(context.Background()))
	assert.Error(t, p.Ping(context.Background()))
	assert.Nil(t, p.PoolHandle())
	r.Close()
	p.Close()
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestRunMigrations_SkipsWithoutDSN(t *testing.T) {
	assert.NoError(t, RunMigrations("", zap.NewNop()))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)
}
