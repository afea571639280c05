package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("NQ_STR", "x")
	t.Setenv("NQ_INT", "12")
	t.Setenv("NQ_BAD_INT", "twelve")
	t.Setenv("NQ_BOOL", "YES")
	t.Setenv("NQ_DUR", "1500ms")
	t.Setenv("NQ_LIST", " a, ,b ")

	assert.Equal(t, "x", GetEnv("NQ_STR", "d"))
	assert.Equal(t, "d", GetEnv("NQ_MISSING", "d"))
	assert.Equal(t, 12, GetEnvInt("NQ_INT", 1))
	assert.Equal(t, 1, GetEnvInt("NQ_BAD_INT", 1))
	assert.True(t, GetEnvBool("NQ_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("NQ_DUR", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("NQ_LIST", nil))
	assert.Equal(t, []string{"z"}, GetEnvList("NQ_MISSING", []string{"z"}))
}
