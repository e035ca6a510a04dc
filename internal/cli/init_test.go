package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjt/internal/config"
	applog "bjt/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, applog.ComponentWorker)

	assert.Equal(t, applog.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, logger.Logger, slog.Default())
}

func TestGracefulShutdownRunsCleanupWhenParentEnds(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	cleaned := make(chan struct{})

	ctx, done := GracefulShutdown(parent, applog.Default(applog.ComponentApp), time.Second, func(context.Context) {
		close(cleaned)
	})
	stop()

	WaitForShutdown(ctx, done)
	select {
	case <-cleaned:
	default:
		require.Fail(t, "cleanup did not run")
	}
}

func TestGracefulShutdownTimesOut(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	ctx, done := GracefulShutdown(parent, applog.Default(applog.ComponentApp), 20*time.Millisecond, func(context.Context) {
		<-release
	})
	stop()

	finished := make(chan struct{})
	go func() {
		WaitForShutdown(ctx, done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		require.Fail(t, "shutdown did not give up after its timeout")
	}
}
