package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ronda-app-go/pkg/logger"
)

const (
	dotenvFilename = ".env"
	// dotenvPathVar names the file explicitly. Without it the nearest .env
	// walking up from the working directory is used, so the server and the
	// agent can share one file at the repository root.
	dotenvPathVar = "RONDA_ENV_FILE"
)

type dotenvEntry struct {
	line  int
	key   string
	value string
}

func loadDotEnv(log logger.Logger) error {
	path, err := locateDotEnv()
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("dotenv: no .env file found")
		return nil
	}
	if err != nil {
		return err
	}

	loaded, skipped, err := parseDotEnv(path)
	if err != nil {
		return fmt.Errorf("dotenv %s: %w", path, err)
	}
	log.Info("dotenv: loaded", "path", path, "loaded", loaded, "kept_from_env", skipped)
	return nil
}

func locateDotEnv() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv(dotenvPathVar)); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			// An explicit path that does not exist is a configuration error,
			// not a missing optional file.
			return "", fmt.Errorf("%s=%q: %v", dotenvPathVar, explicit, err)
		}
		return explicit, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, dotenvFilename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// parseDotEnv exports the file's variables. Variables already present in the
// process environment win over the file and are counted as skipped.
func parseDotEnv(path string) (loaded, skipped int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	entries, err := readDotEnv(file)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if _, exists := os.LookupEnv(entry.key); exists {
			skipped++
			continue
		}
		if err := os.Setenv(entry.key, entry.value); err != nil {
			return loaded, skipped, fmt.Errorf("line %d: %w", entry.line, err)
		}
		loaded++
	}
	return loaded, skipped, nil
}

// readDotEnv skips blank lines, comments and lines without a key.
func readDotEnv(r io.Reader) ([]dotenvEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []dotenvEntry
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		if key, value, ok := splitKeyValue(line); ok {
			entries = append(entries, dotenvEntry{line: n, key: key, value: value})
		}
	}
	return entries, scanner.Err()
}

func splitKeyValue(line string) (string, string, bool) {
	key, raw, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}

	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return key, "", true
	case quotedWith(raw, '"'):
		if unquoted, err := strconv.Unquote(raw); err == nil {
			return key, unquoted, true
		}
		return key, raw[1 : len(raw)-1], true
	case quotedWith(raw, '\''):
		return key, raw[1 : len(raw)-1], true
	default:
		return key, stripInlineComment(raw), true
	}
}

func quotedWith(value string, quote byte) bool {
	return len(value) >= 2 && value[0] == quote && value[len(value)-1] == quote
}

// stripInlineComment drops a trailing "# ..." that is separated from the value
// by whitespace. A bare # inside the value is kept.
func stripInlineComment(value string) string {
	cut := len(value)
	for _, marker := range []string{" #", "\t#"} {
		if idx := strings.Index(value, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(value[:cut])
}
