package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendlens/pkg/contracts"
)

func testVersion(version, buildTime string) contracts.VersionInfo {
	info := contracts.GetVersionInfo()
	info.Version = version
	info.BuildTime = buildTime
	info.GitCommit = ""
	return info
}

type fakeStats map[string]interface{}

func (f fakeStats) Stats() map[string]interface{} { return f }

func TestHealthService(t *testing.T) {
	ctx := context.Background()

	t.Run("ready with store", func(t *testing.T) {
		hs := NewHealthService(testVersion("0.3.0", ""), fakeStats{"datasets": 2}, nil)

		assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)

		ready := hs.ReadinessCheck(ctx)
		assert.Equal(t, "ready", ready.Status)
		store, ok := ready.Services["store"].(ServiceHealth)
		require.True(t, ok)
		assert.Equal(t, 2, store.Details["datasets"])
	})

	t.Run("not ready without store", func(t *testing.T) {
		hs := NewHealthService(testVersion("0.3.0", ""), nil, nil)
		assert.Equal(t, "not_ready", hs.ReadinessCheck(ctx).Status)
	})

	t.Run("liveness and version", func(t *testing.T) {
		hs := NewHealthService(testVersion("0.3.0", "2026-01-01"), fakeStats{}, nil)

		live := hs.LivenessCheck(ctx)
		assert.Equal(t, "alive", live.Status)
		assert.Contains(t, live.Runtime, "goroutines")

		version := hs.Version()
		assert.Equal(t, "0.3.0", version["version"])
		assert.Equal(t, "2026-01-01", version["build_time"])
		assert.Equal(t, contracts.APIVersion, version["api_version"])
		assert.NotContains(t, version, "git_commit")
	})
}
