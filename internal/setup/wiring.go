package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/audit"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/cache"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/config"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/database"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/fetch"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/filesystem"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/pathguard"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/querygate"
	redisconn "github.com/povarna/generative-ai-agents/mcp-tools/internal/redis"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/search"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/tools"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Config struct {
	FSRoot            string
	FSMaxReadBytes    int64
	DatabaseURL       string
	ReadOnly          bool
	ForbiddenKeywords []string
	QueryTimeout      time.Duration
	SearchEnabled     bool
	SearchBaseURL     string
	SearchTimeout     time.Duration
	SearchRatePerMin  int
	FetchTimeout      time.Duration
	FetchMaxBytes     int64
	RedisAddr         string
	RedisPassword     string
	CacheTTL          time.Duration
	AuditStream       string
	MCPTransport      string
	MCPAddr           string
	APIPort           string
	LogLevel          string
}

type Dependencies struct {
	Toolbox *tools.Toolbox
	Guard   *pathguard.Guard
	Gate    *querygate.KeywordGate
	Redis   *redis.Client
	Logger  *zerolog.Logger
	closers []func()
}

// Close releases pools and connections in reverse order of creation.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// LoadConfig reads the YAML policy and applies environment overrides on top.
func LoadConfig() (*Config, error) {
	policy, err := config.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	cfg := &Config{
		FSRoot:            getEnv("FS_ROOT", policy.Filesystem.Root),
		FSMaxReadBytes:    getEnvInt64("FS_MAX_READ_BYTES", policy.Filesystem.MaxReadBytes),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ReadOnly:          getEnvBool("POSTGRES_READ_ONLY", policy.SQL.IsReadOnly()),
		ForbiddenKeywords: getEnvList("SQL_FORBIDDEN_KEYWORDS", policy.SQL.ForbiddenKeywords),
		QueryTimeout:      getEnvDuration("SQL_QUERY_TIMEOUT", policy.SQL.QueryTimeout),
		SearchEnabled:     getEnvBool("SEARCH_ENABLED", policy.Search.IsEnabled()),
		SearchBaseURL:     getEnv("SEARCH_BASE_URL", policy.Search.BaseURL),
		SearchTimeout:     getEnvDuration("SEARCH_TIMEOUT", policy.Search.Timeout),
		SearchRatePerMin:  int(getEnvInt64("SEARCH_RATE_PER_MIN", int64(policy.Search.RatePerMin))),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", policy.Fetch.Timeout),
		FetchMaxBytes:     getEnvInt64("FETCH_MAX_BYTES", policy.Fetch.MaxBytes),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		CacheTTL:          getEnvDuration("CACHE_TTL", 10*time.Minute),
		AuditStream:       getEnv("AUDIT_STREAM", audit.DefaultStream),
		MCPTransport:      getEnv("MCP_TRANSPORT", "stdio"),
		MCPAddr:           getEnv("MCP_ADDR", ":8080"),
		APIPort:           getEnv("API_PORT", "18082"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if cfg.ReadOnly && len(cfg.ForbiddenKeywords) == 0 {
		return nil, fmt.Errorf("read-only mode requires at least one forbidden keyword")
	}
	return cfg, nil
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	guard, err := pathguard.New(cfg.FSRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to create path guard: %w", err)
	}
	deps.Guard = guard
	deps.Gate = querygate.NewKeywordGate(cfg.ReadOnly, cfg.ForbiddenKeywords)

	// Redis backs the cache and the audit stream; both degrade to no-ops without it.
	var responseCache cache.Cache = cache.NopCache{}
	var publisher audit.Publisher = audit.NopPublisher{}
	if cfg.RedisAddr != "" {
		client, err := redisconn.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Redis = client
		deps.closers = append(deps.closers, func() { _ = client.Close() })
		responseCache = cache.NewRedisCache(client, cfg.CacheTTL, logger)
		publisher = audit.NewStreamPublisher(client, cfg.AuditStream, logger)
	}

	opts := tools.Options{
		Files: filesystem.NewAdapter(guard, cfg.FSMaxReadBytes, logger),
		Audit: publisher,
	}

	if cfg.DatabaseURL != "" {
		connector, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		deps.closers = append(deps.closers, connector.Close)
		opts.Database = database.NewAdapter(deps.Gate, connector, cfg.QueryTimeout, logger)
	}

	if cfg.SearchEnabled {
		opts.Search = search.NewClient(search.Config{
			BaseURL:    cfg.SearchBaseURL,
			Timeout:    cfg.SearchTimeout,
			RatePerMin: cfg.SearchRatePerMin,
		}, responseCache, logger)
		opts.Fetcher = fetch.NewFetcher(fetch.Config{
			Timeout:  cfg.FetchTimeout,
			MaxBytes: cfg.FetchMaxBytes,
		}, responseCache, logger)
	}

	deps.Toolbox = tools.New(opts, logger)

	logger.Info().
		Str("root", guard.Root()).
		Bool("read_only", cfg.ReadOnly).
		Bool("database", opts.Database != nil).
		Bool("search", cfg.SearchEnabled).
		Bool("redis", deps.Redis != nil).
		Strs("tools", deps.Toolbox.Names()).
		Msg("Dependencies wired")

	return deps, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
