package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BOARD_TEST_STRING", "")
	assert.Equal(t, "fallback", GetEnv("BOARD_TEST_STRING", "fallback"))

	t.Setenv("BOARD_TEST_STRING", "set")
	assert.Equal(t, "set", GetEnv("BOARD_TEST_STRING", "fallback"))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("BOARD_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("BOARD_TEST_DURATION", time.Minute))

	t.Setenv("BOARD_TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, GetEnvDuration("BOARD_TEST_DURATION", time.Minute))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("BOARD_TEST_BOOL", "YES")
	assert.True(t, GetEnvBool("BOARD_TEST_BOOL", false))

	t.Setenv("BOARD_TEST_BOOL", "0")
	assert.False(t, GetEnvBool("BOARD_TEST_BOOL", true))

	t.Setenv("BOARD_TEST_BOOL", "maybe")
	assert.True(t, GetEnvBool("BOARD_TEST_BOOL", true))
}
