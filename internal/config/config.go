// Package config reads the server configuration from the environment.
//
// WHERE DOES CONFIG COME FROM?
// Environment variables, as before, but a .env file in the working directory
// is loaded first (github.com/joho/godotenv). Real environment variables win
// over the file, so production can ignore it and a developer can keep their
// secrets out of their shell history.
//
// Every value has a default except SESSION_SECRET: a server that signs
// session cookies with an empty or guessable key is worse than no server.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// minSecretLength is the shortest SESSION_SECRET we accept.
const minSecretLength = 16

// Config is everything the server needs to start.
type Config struct {
	Port          int
	DBPath        string
	PostsPerPage  int
	IndexCacheTTL time.Duration

	SessionSecret string
	SessionTTL    time.Duration

	MediaDir string
	MediaURL string
	S3       S3Config

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	LogLevel slog.Level
	LogFile  string
}

// S3Config selects S3-compatible image storage. It is enabled by Bucket.
type S3Config struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// Enabled reports whether images should go to a bucket instead of MediaDir.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal (production, CI). Any other error, such as a
	// syntax error in the file, is worth failing on.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function. Tests pass a map lookup;
// Load passes os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		DBPath:             orDefault(getenv("DB_PATH"), "data/blog.db"),
		SessionSecret:      getenv("SESSION_SECRET"),
		MediaDir:           orDefault(getenv("MEDIA_DIR"), "media"),
		MediaURL:           orDefault(getenv("MEDIA_URL"), "/media/"),
		GitHubClientID:     getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getenv("GITHUB_CALLBACK_URL"),
		LogFile:            getenv("LOG_FILE"),
		S3: S3Config{
			Bucket:          getenv("S3_BUCKET"),
			Endpoint:        getenv("S3_ENDPOINT"),
			Region:          orDefault(getenv("S3_REGION"), "auto"),
			AccessKeyID:     getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY"),
			PublicURL:       getenv("S3_PUBLIC_URL"),
		},
	}

	var err error
	if cfg.Port, err = intVar(getenv, "PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.PostsPerPage, err = intVar(getenv, "POSTS_PER_PAGE", 10); err != nil {
		return Config{}, err
	}
	if cfg.IndexCacheTTL, err = durationVar(getenv, "INDEX_CACHE_TTL", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationVar(getenv, "SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = levelVar(getenv("LOG_LEVEL")); err != nil {
		return Config{}, err
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have no safe default.
func (c Config) Validate() error {
	if len(c.SessionSecret) < minSecretLength {
		return fmt.Errorf("config: SESSION_SECRET must be at least %d characters", minSecretLength)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.PostsPerPage <= 0 {
		return fmt.Errorf("config: POSTS_PER_PAGE must be positive, got %d", c.PostsPerPage)
	}
	if c.IndexCacheTTL < 0 {
		return fmt.Errorf("config: INDEX_CACHE_TTL must not be negative")
	}
	if c.S3.Enabled() && (c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "") {
		return fmt.Errorf("config: S3_BUCKET is set but S3 credentials are missing")
	}
	return nil
}

// NewLogger builds the application logger.
//
// With LOG_FILE set, every line goes to stdout AND to a file that lumberjack
// rotates once it passes 10 MB, keeping three old files for up to 28 days.
// The returned io.Closer closes that file; it is a no-op otherwise.
func NewLogger(c Config) (*slog.Logger, io.Closer) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if c.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   c.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(os.Stdout, rotating)
		closer = rotating
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: c.LogLevel}))
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intVar(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return n, nil
}

func durationVar(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

func levelVar(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", v, err)
	}
	return l, nil
}
