package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns the trimmed value of key and whether it was set to
// something other than blanks.
func lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// parsed reads key through parse, keeping defaultVal for unset or malformed values.
func parsed[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	value, ok := lookup(key)
	if !ok {
		return defaultVal
	}
	v, err := parse(value)
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	return parsed(key, defaultVal, strconv.Atoi)
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	return parsed(key, defaultVal, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func getEnvAsBool(key string, defaultVal bool) bool {
	return parsed(key, defaultVal, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	return parsed(key, defaultVal, time.ParseDuration)
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	value, ok := lookup(key)
	if !ok {
		return defaults
	}
	var filtered []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return defaults
	}
	return filtered
}
