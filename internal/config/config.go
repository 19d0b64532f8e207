package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values
const (
	DefaultLLMProvider               = "openai"
	DefaultLLMRequestTimeout         = 30 * time.Second
	DefaultMaxQuotaExhaustedCascade  = 10
	DefaultMaxOutputTokens           = 1024
	DefaultSoftDeadline              = 300 * time.Second
	DefaultWorkerPoolSize            = 8
	DefaultLedgerPath                = ".cache/dqrepair_ledger.db"
	DefaultSinkBaseDir               = ".cache/dqrepair_artifacts"
	DefaultRowSourceType             = "csv"
	DefaultServerAddr                = ":8080"
	DefaultServerRateLimit           = 30
	DefaultServerRateLimitWindow     = time.Minute
)

// DefaultProtectedColumnKeywords names columns the applier never rewrites:
// personal-name and personal-identity keywords, plus place names that are
// never corrected by suggestion alone.
var DefaultProtectedColumnKeywords = []string{
	"firstname", "first_name", "lastname", "last_name",
	"fullname", "full_name", "username", "user_name", "name",
	"person", "customer", "employee", "contact",
	"city", "town", "location", "place",
}

type Config struct {
	// LLM Gateway (§6 "LLM Gateway config")
	LLMProvider                 string
	LLMAPIKey                   string
	LLMPrimaryModel             string
	LLMRequestTimeout           time.Duration
	LLMMaxQuotaExhaustedCascade int
	LLMFallbackModels           []string
	LLMMaxOutputTokens          int
	LLMEnabled                  bool // auto-enabled when LLMAPIKey is set

	// Orchestrator / concurrency (§5)
	SoftDeadline   time.Duration
	WorkerPoolSize int

	// ImputationColumns scopes the Imputation agent to a subset of columns;
	// empty means every column is eligible.
	ImputationColumns []string

	// ProtectedColumnKeywords names columns the applier never rewrites
	// (§6). Defaults to DefaultProtectedColumnKeywords.
	ProtectedColumnKeywords []string

	// Row Source (§6)
	RowSourceType  string // "csv", "xlsx", "gsheet"
	RowSourcePath  string
	RowSourceSheet string // xlsx sheet name or gsheet range

	// Google Sheets credentials (optional; only needed for RowSourceType=gsheet)
	GSheetCredsPath string

	// Artifact Sink (C8) and Run Ledger (C9)
	SinkBaseDir string
	LedgerPath  string

	// HTTP transport shim (§10, optional cmd/server)
	ServerAddr            string
	ServerCORSOrigins     []string
	ServerTrustedProxies  []string
	ServerRateLimit       int
	ServerRateLimitWindow time.Duration
}

func LoadConfig() *Config {
	llmAPIKey := getEnv("LLM_API_KEY", "")
	llmEnabled := llmAPIKey != ""

	if llmEnabled {
		slog.Info("LLM-backed detection enabled (LLM_API_KEY is set)")
	} else {
		slog.Info("LLM-backed detection disabled (LLM_API_KEY not set); only deterministic detectors will run")
	}

	return &Config{
		LLMProvider:                 getEnv("LLM_PROVIDER", DefaultLLMProvider),
		LLMAPIKey:                   llmAPIKey,
		LLMPrimaryModel:             getEnv("LLM_PRIMARY_MODEL", ""),
		LLMRequestTimeout:           getEnvDuration("LLM_REQUEST_TIMEOUT", DefaultLLMRequestTimeout),
		LLMMaxQuotaExhaustedCascade: getEnvInt("LLM_MAX_QUOTA_EXHAUSTED_CASCADE", DefaultMaxQuotaExhaustedCascade),
		LLMFallbackModels:           splitCSV(getEnv("LLM_FALLBACK_MODELS", "")),
		LLMMaxOutputTokens:          getEnvInt("LLM_MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens),
		LLMEnabled:                  llmEnabled,

		SoftDeadline:   getEnvDuration("SOFT_DEADLINE", DefaultSoftDeadline),
		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", DefaultWorkerPoolSize),

		ImputationColumns:       splitCSV(getEnv("IMPUTATION_COLUMNS", "")),
		ProtectedColumnKeywords: splitCSVOrDefault("PROTECTED_COLUMN_KEYWORDS", DefaultProtectedColumnKeywords),

		RowSourceType:  getEnv("ROW_SOURCE_TYPE", DefaultRowSourceType),
		RowSourcePath:  getEnv("ROW_SOURCE_PATH", ""),
		RowSourceSheet: getEnv("ROW_SOURCE_SHEET", ""),

		GSheetCredsPath: getEnv("GOOGLE_SHEETS_CREDENTIALS_PATH", ""),

		SinkBaseDir: getEnv("SINK_BASE_DIR", DefaultSinkBaseDir),
		LedgerPath:  getEnv("LEDGER_PATH", DefaultLedgerPath),

		ServerAddr:            getEnv("SERVER_ADDR", DefaultServerAddr),
		ServerCORSOrigins:     splitCSV(getEnv("SERVER_CORS_ORIGINS", "")),
		ServerTrustedProxies:  splitCSV(getEnv("SERVER_TRUSTED_PROXIES", "")),
		ServerRateLimit:       getEnvInt("SERVER_RATE_LIMIT", DefaultServerRateLimit),
		ServerRateLimitWindow: getEnvDuration("SERVER_RATE_LIMIT_WINDOW", DefaultServerRateLimitWindow),
	}
}

// ValidateConfig checks config values and returns an error on failure.
// Call after LoadConfig to fail fast on invalid configuration.
func ValidateConfig(cfg *Config) error {
	switch cfg.LLMProvider {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, gemini, claude, got %q", cfg.LLMProvider)
	}
	if cfg.LLMRequestTimeout <= 0 {
		return fmt.Errorf("LLM_REQUEST_TIMEOUT must be positive")
	}
	if cfg.LLMMaxQuotaExhaustedCascade <= 0 {
		return fmt.Errorf("LLM_MAX_QUOTA_EXHAUSTED_CASCADE must be positive")
	}
	if cfg.LLMMaxOutputTokens <= 0 {
		return fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be positive")
	}
	if cfg.SoftDeadline <= 0 {
		return fmt.Errorf("SOFT_DEADLINE must be positive")
	}
	if cfg.WorkerPoolSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE must be positive")
	}
	switch cfg.RowSourceType {
	case "csv", "xlsx", "gsheet":
	default:
		return fmt.Errorf("ROW_SOURCE_TYPE must be one of csv, xlsx, gsheet, got %q", cfg.RowSourceType)
	}
	if cfg.RowSourceType != "gsheet" && cfg.RowSourcePath == "" {
		return fmt.Errorf("ROW_SOURCE_PATH is required for ROW_SOURCE_TYPE=%q", cfg.RowSourceType)
	}
	if cfg.RowSourceType == "gsheet" && cfg.RowSourcePath == "" {
		return fmt.Errorf("ROW_SOURCE_PATH must hold the spreadsheet ID when ROW_SOURCE_TYPE=gsheet")
	}
	if cfg.SinkBaseDir == "" {
		return fmt.Errorf("SINK_BASE_DIR must not be empty")
	}
	if cfg.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH must not be empty")
	}
	return nil
}

// ValidateServerConfig checks the subset of Config the HTTP shim (§10) uses.
// Unlike ValidateConfig it does not require a row source, since cmd/server
// receives datasets in the request body rather than reading a file.
func ValidateServerConfig(cfg *Config) error {
	switch cfg.LLMProvider {
	case "openai", "gemini", "claude":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of openai, gemini, claude, got %q", cfg.LLMProvider)
	}
	if cfg.LLMRequestTimeout <= 0 {
		return fmt.Errorf("LLM_REQUEST_TIMEOUT must be positive")
	}
	if cfg.LLMMaxQuotaExhaustedCascade <= 0 {
		return fmt.Errorf("LLM_MAX_QUOTA_EXHAUSTED_CASCADE must be positive")
	}
	if cfg.LLMMaxOutputTokens <= 0 {
		return fmt.Errorf("LLM_MAX_OUTPUT_TOKENS must be positive")
	}
	if cfg.SoftDeadline <= 0 {
		return fmt.Errorf("SOFT_DEADLINE must be positive")
	}
	if cfg.SinkBaseDir == "" {
		return fmt.Errorf("SINK_BASE_DIR must not be empty")
	}
	if cfg.LedgerPath == "" {
		return fmt.Errorf("LEDGER_PATH must not be empty")
	}
	if cfg.ServerAddr == "" {
		return fmt.Errorf("SERVER_ADDR must not be empty")
	}
	if cfg.ServerRateLimit <= 0 {
		return fmt.Errorf("SERVER_RATE_LIMIT must be positive")
	}
	if cfg.ServerRateLimitWindow <= 0 {
		return fmt.Errorf("SERVER_RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// splitCSVOrDefault reads a comma-separated env var, falling back to def
// when the variable is unset or empty.
func splitCSVOrDefault(envVar string, def []string) []string {
	raw := getEnv(envVar, "")
	if raw == "" {
		return def
	}
	return splitCSV(raw)
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var items []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
