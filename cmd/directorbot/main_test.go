package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/directorbot/core/buildinfo"
	"github.com/m3rciful/directorbot/core/dialogue"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "directorbot "+buildinfo.String()+"\n", out)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, buildinfo.String()+"\n", out)
}

func TestCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "migrate", "history", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRunRejectsArgs(t *testing.T) {
	_, err := execute(t, "run", "extra")
	require.Error(t, err)
}

func TestMigrateNeedsStorage(t *testing.T) {
	t.Setenv("DB_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CONFIG_PATH", "")
	_, err := execute(t, "migrate")
	require.ErrorContains(t, err, "storage location is required")
}

func TestHistoryRequiresUser(t *testing.T) {
	_, err := execute(t, "history")
	require.ErrorContains(t, err, "--user is required")
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeHistory(&out, nil))
	assert.Contains(t, out.String(), "No sessions recorded")

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	out.Reset()
	require.NoError(t, writeHistory(&out, []dialogue.SessionRecord{
		{Selected: "Stanley Kubrick", Actions: 3, Outcome: dialogue.OutcomeCompleted, StartedAt: at, EndedAt: at.Add(3 * time.Minute)},
		{Outcome: dialogue.OutcomeTimeout, StartedAt: at.Add(-time.Hour), EndedAt: at.Add(-57 * time.Minute)},
	}))
	text := out.String()
	assert.Contains(t, text, "2 session(s)")
	assert.Contains(t, text, "2024-05-01 10:00:00")
	assert.Contains(t, text, "Stanley Kubrick")
	assert.Contains(t, text, "completed")
	assert.Contains(t, text, "3m0s")
	assert.Contains(t, text, "timeout")
}
