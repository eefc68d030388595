package common

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEnvFile applies KEY=VALUE lines from path to the process environment
// and returns the keys it set. Variables already present are left alone and
// a missing file is not an error.
func LoadEnvFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer f.Close()

	var applied []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		k, v, ok := parseEnvLine(s.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return applied, fmt.Errorf("set %s: %w", k, err)
		}
		applied = append(applied, k)
	}
	if err := s.Err(); err != nil {
		return applied, fmt.Errorf("read env file: %w", err)
	}
	return applied, nil
}

func parseEnvLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	k, v, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return "", "", false
	}
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		v = v[1 : len(v)-1]
	}
	return k, v, true
}
