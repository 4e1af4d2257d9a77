// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ChimeHook Contributors

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusDeps(t *testing.T, m migrator) *Deps {
	t.Helper()
	mr := miniredis.RunT(t)
	return &Deps{
		MigratorFactory: func(string) (migrator, error) { return m, nil },
		RedisFactory: func(_, _ string, _ int) *redis.Client {
			return redis.NewClient(&redis.Options{Addr: mr.Addr()})
		},
	}
}

func TestStatus_TableOutput(t *testing.T) {
	fake := &fakeMigrator{version: 1, applied: []uint{1}}
	cmd := newStatusCmdWithDeps(statusDeps(t, fake))
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "postgres")
	assert.Contains(t, output, "schema version 1")
	assert.Contains(t, output, "redis")
	assert.Contains(t, output, "ok")
}

func TestStatus_JSONOutput(t *testing.T) {
	fake := &fakeMigrator{version: 1, applied: []uint{1}}
	cmd := newStatusCmdWithDeps(statusDeps(t, fake))
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})

	require.NoError(t, cmd.Execute())

	var statuses []BackendStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "postgres", statuses[0].Component)
	assert.True(t, statuses[0].Reachable)
	assert.Equal(t, "redis", statuses[1].Component)
	assert.True(t, statuses[1].Reachable)
}

func TestStatus_RedisDown(t *testing.T) {
	fake := &fakeMigrator{version: 1, applied: []uint{1}}
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	deps := &Deps{
		MigratorFactory: func(string) (migrator, error) { return fake, nil },
		RedisFactory: func(_, _ string, _ int) *redis.Client {
			return redis.NewClient(&redis.Options{Addr: addr})
		},
	}

	cmd := newStatusCmdWithDeps(deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "unreachable")
}
