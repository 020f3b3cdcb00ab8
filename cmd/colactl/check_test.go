package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/app"
	"github.com/EmpoweredVote/cola-explorer/internal/config"
	"github.com/EmpoweredVote/cola-explorer/internal/seeds"
)

func useConfig(t *testing.T, url string) {
	t.Helper()
	cfg = config.Default()
	cfg.DatabaseURL = url
	logger = zap.NewNop()
}

func TestCheckReportsCounts(t *testing.T) {
	useConfig(t, "sqlite:file:"+t.Name()+"?mode=memory&cache=shared")
	ctx := context.Background()

	d, err := app.Connect(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, app.Migrate(ctx, d, cfg, logger))
	_, err = seeds.Seed(ctx, d, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runCheck(ctx, &out))
	assert.Contains(t, out.String(), "✓ Connected (sqlite)")
	assert.Regexp(t, `colas\s+5\n`, out.String())
	assert.Contains(t, out.String(), "All checks passed")
}

func TestCheckReportsMissingTables(t *testing.T) {
	useConfig(t, "sqlite:file:"+t.Name()+"?mode=memory&cache=shared")

	var out bytes.Buffer
	err := runCheck(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "error class: table_not_found")
	assert.Contains(t, out.String(), "colactl migrate")
}

func TestReportFailureWrapsError(t *testing.T) {
	var out bytes.Buffer
	cause := errors.New("connection refused")
	err := reportFailure(&out, "ping", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, out.String(), "error class: network")
}
