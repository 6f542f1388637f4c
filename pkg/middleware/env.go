package middleware

import (
	"os"
	"strconv"
	"strings"
)

func envList(name string) ([]string, bool) {
	if name == "" {
		return nil, false
	}
	v := os.Getenv(name)
	if v == "" {
		return nil, false
	}

	parts := strings.Split(v, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values, true
}

func envBool(name string) (bool, bool) {
	if name == "" {
		return false, false
	}
	b, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	if name == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envString(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	v := os.Getenv(name)
	return v, v != ""
}
