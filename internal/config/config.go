// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the daemon configuration loaded from environment variables.
type Config struct {
	GitHubToken  string
	Repo         string // owner/name of the repository whose PRs are tracked.
	WorkDir      string // Working copy root; the git repository is discovered from here.
	PollInterval time.Duration
	Debounce     time.Duration
	ListenAddr   string
	DBPath       string
}

// HasGitHubCredentials returns true when a token and repository are
// configured. Without them the daemon serves cached threads but never syncs
// or posts replies.
func (c *Config) HasGitHubCredentials() bool {
	return c.GitHubToken != "" && c.Repo != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. REVIEWANCHOR_GITHUB_TOKEN and REVIEWANCHOR_REPO are optional; when
// absent the daemon starts offline. Optional variables with defaults:
// REVIEWANCHOR_WORKDIR (.), REVIEWANCHOR_POLL_INTERVAL (2m),
// REVIEWANCHOR_DEBOUNCE (500ms), REVIEWANCHOR_LISTEN_ADDR (127.0.0.1:8973),
// REVIEWANCHOR_DB_PATH (reviewanchor.db).
func Load() (*Config, error) {
	token := os.Getenv("REVIEWANCHOR_GITHUB_TOKEN")

	repo := os.Getenv("REVIEWANCHOR_REPO")
	if repo != "" && !isValidRepoName(repo) {
		return nil, fmt.Errorf("REVIEWANCHOR_REPO %q is not in owner/name format", repo)
	}

	workDir := "."
	if v, ok := os.LookupEnv("REVIEWANCHOR_WORKDIR"); ok {
		workDir = v
	}

	pollInterval := 2 * time.Minute
	if v, ok := os.LookupEnv("REVIEWANCHOR_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWANCHOR_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		pollInterval = parsed
	}

	debounce := 500 * time.Millisecond
	if v, ok := os.LookupEnv("REVIEWANCHOR_DEBOUNCE"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("REVIEWANCHOR_DEBOUNCE has invalid duration %q: %w", v, err)
		}
		debounce = parsed
	}

	listenAddr := "127.0.0.1:8973"
	if v, ok := os.LookupEnv("REVIEWANCHOR_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "reviewanchor.db"
	if v, ok := os.LookupEnv("REVIEWANCHOR_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		GitHubToken:  token,
		Repo:         repo,
		WorkDir:      workDir,
		PollInterval: pollInterval,
		Debounce:     debounce,
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
	}, nil
}

// isValidRepoName validates that name is in owner/name format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 2 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, ch := range part {
			if !isValidRepoChar(ch) {
				return false
			}
		}
	}

	return true
}

func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
