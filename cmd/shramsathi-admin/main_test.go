package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("REMOTE_DRIVER", "memory")
	t.Setenv("LOCAL_CACHE_PATH", filepath.Join(dir, "cache.db"))
	return filepath.Join(dir, "missing.env")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := context.Background()

	assert.Equal(t, exitUsage, run(ctx, nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: shramsathi-admin")

	stderr.Reset()
	assert.Equal(t, exitUsage, run(ctx, []string{"explode"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `unknown command "explode"`)

	stderr.Reset()
	assert.Equal(t, exitUsage, run(ctx, []string{"reset"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--yes")

	assert.Equal(t, exitUsage, run(ctx, []string{"--bogus", "status"}, &stdout, &stderr))
	assert.Equal(t, exitOK, run(ctx, []string{"--help"}, &stdout, &stderr))
}

func TestRun_Status(t *testing.T) {
	envFile := setupEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--env-file", envFile, "status"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var status map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &status))
	assert.Equal(t, true, status["remote_reachable"])
	assert.Equal(t, float64(0), status["cached_items"])
}

func TestRun_ResetAndRebuild(t *testing.T) {
	envFile := setupEnv(t)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run(ctx, []string{"--env-file", envFile, "reset", "--yes"}, &stdout, &stderr), stderr.String())
	var reset map[string]int
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reset))
	assert.Contains(t, reset, "removed")

	stdout.Reset()
	require.Equal(t, exitOK, run(ctx, []string{"--env-file", envFile, "rebuild-relations"}, &stdout, &stderr), stderr.String())
	assert.JSONEq(t, `{"created":0}`, stdout.String())

	stdout.Reset()
	require.Equal(t, exitOK, run(ctx, []string{"--env-file", envFile, "drain"}, &stdout, &stderr), stderr.String())
}

func TestRun_ConfigError(t *testing.T) {
	envFile := setupEnv(t)
	t.Setenv("REMOTE_DRIVER", "firestore")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitError, run(context.Background(), []string{"--env-file", envFile, "status"}, &stdout, &stderr))
}

func TestRun_StatusYAML(t *testing.T) {
	envFile := setupEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"--env-file", envFile, "--format", "yaml", "status"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "remote_reachable: true")
	assert.Contains(t, stdout.String(), "queued_sync_entries: 0")

	assert.Equal(t, exitUsage, run(context.Background(), []string{"--format", "xml", "status"}, &stdout, &stderr))
}
