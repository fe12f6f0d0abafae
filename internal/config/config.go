package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"guesstimate/internal/jira"
	"guesstimate/internal/simulation"
	"guesstimate/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira       jira.Config
	FilterName string
	// MockFile, when set, replaces Jira with a saved search dump.
	MockFile string

	CycleTime  stats.CycleTimeOptions
	Simulation simulation.Config

	HTTPAddr    string
	RedisAddr   string
	CacheTTL    time.Duration
	RefreshCron string
	DefaultJQL  string

	DataPath string
	LogDir   string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment. exeDir is the
// fallback data directory.
func FromEnv(exeDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))

	tz := getEnv("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	pageSize, err := getEnvInt("JIRA_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	delayMs, err := getEnvInt("JIRA_REQUEST_DELAY_MS", 0)
	if err != nil {
		return nil, err
	}
	trials, err := getEnvInt("SIMULATION_TRIALS", simulation.DefaultTrials)
	if err != nil {
		return nil, err
	}
	workers, err := getEnvInt("SIMULATION_WORKERS", 0)
	if err != nil {
		return nil, err
	}
	ttlMinutes, err := getEnvInt("CACHE_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:       getEnv("JIRA_URL", ""),
			Email:         getEnv("JIRA_EMAIL", ""),
			APIToken:      getEnv("JIRA_API_TOKEN", ""),
			Token:         getEnv("JIRA_TOKEN", ""),
			EstimateField: getEnv("JIRA_ESTIMATE_FIELD", "customfield_10004"),
			PageSize:      pageSize,
			RequestDelay:  time.Duration(delayMs) * time.Millisecond,
			Location:      loc,
		},
		FilterName: getEnv("JIRA_FILTER_NAME", "guesstimate"),
		MockFile:   getEnv("JIRA_MOCK_FILE", ""),
		CycleTime: stats.CycleTimeOptions{
			StartStatus: getEnv("CYCLE_START_STATUS", stats.DefaultProgressStatus),
			EndStatus:   getEnv("CYCLE_END_STATUS", ""),
		},
		Simulation: simulation.Config{
			Trials:  trials,
			Workers: workers,
		},
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		CacheTTL:    time.Duration(ttlMinutes) * time.Minute,
		RefreshCron: getEnv("REFRESH_CRON", ""),
		DefaultJQL:  getEnv("DEFAULT_JQL", ""),
		DataPath:    dataPath,
		LogDir:      logDir,
	}

	return cfg, nil
}

// Validate reports settings that make the Jira connection unusable.
func (c *AppConfig) Validate() error {
	if c.MockFile != "" {
		return nil
	}
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("JIRA_URL is required (or set JIRA_MOCK_FILE)")
	}
	if c.Jira.Token == "" && (c.Jira.Email == "" || c.Jira.APIToken == "") {
		return fmt.Errorf("either JIRA_TOKEN or JIRA_EMAIL and JIRA_API_TOKEN must be set")
	}
	return nil
}

// Source returns the issue source described by the configuration.
func (c *AppConfig) Source() jira.Source {
	if c.MockFile != "" {
		return jira.NewFileSource(c.MockFile, c.Jira.EstimateField, c.Jira.Location)
	}
	return jira.NewClient(c.Jira)
}

// Identity names the configured connection for memo keys.
func (c *AppConfig) Identity() string {
	if c.MockFile != "" {
		return "file@" + c.MockFile
	}
	return c.Jira.Identity()
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
