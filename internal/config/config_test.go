package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"AUTHORITY_URL", "STATE_DB", "WRONG_GUESS_WINDOW", "HTTP_TIMEOUT", "PORT", "LOG_LEVEL", "LOG_FILE"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8181", c.AuthorityURL)
	assert.Equal(t, time.Second, c.WrongGuessWindow)
	assert.Equal(t, 10*time.Second, c.HTTPTimeout)
	assert.Equal(t, "8181", c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "state.db", filepath.Base(c.StateDB))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTHORITY_URL", "http://puzzles.test")
	t.Setenv("STATE_DB", ":memory:")
	t.Setenv("WRONG_GUESS_WINDOW", "1500ms")
	t.Setenv("HTTP_TIMEOUT", "3s")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://puzzles.test", c.AuthorityURL)
	assert.Equal(t, ":memory:", c.StateDB)
	assert.Equal(t, 1500*time.Millisecond, c.WrongGuessWindow)
	assert.Equal(t, 3*time.Second, c.HTTPTimeout)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	for _, v := range []string{"soon", "-1s", "0s"} {
		t.Setenv("WRONG_GUESS_WINDOW", v)
		_, err := Load()
		assert.Error(t, err, v)
	}
}
