package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpersFallBackOnMalformedValues(t *testing.T) {
	t.Setenv("BISTRO_TEST_INT", " 42 ")
	t.Setenv("BISTRO_TEST_BAD_INT", "forty")
	t.Setenv("BISTRO_TEST_DURATION", "90s")
	t.Setenv("BISTRO_TEST_BOOL", "   ")

	assert.Equal(t, 42, getEnvAsInt("BISTRO_TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("BISTRO_TEST_BAD_INT", 1))
	assert.Equal(t, int64(7), getEnvAsInt64("BISTRO_TEST_UNSET", 7))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("BISTRO_TEST_DURATION", time.Second))
	assert.True(t, getEnvAsBool("BISTRO_TEST_BOOL", true))
}

func TestStringSliceDropsBlankEntries(t *testing.T) {
	t.Setenv("BISTRO_TEST_ORIGINS", "http://a.test, ,http://b.test,")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, getEnvAsStringSlice("BISTRO_TEST_ORIGINS", nil))

	t.Setenv("BISTRO_TEST_ORIGINS", " , ")
	assert.Equal(t, []string{"*"}, getEnvAsStringSlice("BISTRO_TEST_ORIGINS", []string{"*"}))
}
