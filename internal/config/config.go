package config

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ServerConfig controls the HTTP workbench.
type ServerConfig struct {
    Port        string
    MaxUploadMB int
    IdleTTL     time.Duration // workbench eviction after inactivity
}

// RenderConfig holds rasterizer defaults (PDF→JPG).
type RenderConfig struct {
    Scale   float64
    Quality int
}

// CompressConfig selects the compressor pipeline.
type CompressConfig struct {
    Mode    string // "metadata"|"rasterize"
    DPI     int
    Quality int
}

// WordConfig controls the Word→PDF text layout.
type WordConfig struct {
    Paginate bool
}

// LibreOfficeConfig enables the optional layout-preserving Word→PDF backend.
type LibreOfficeConfig struct {
    Enabled bool
    Binary  string
    Timeout time.Duration
}

// S3Config describes the optional S3 delivery sink.
type S3Config struct {
    Bucket    string
    Prefix    string
    Region    string
    Endpoint  string
    AccessKey string
    SecretKey string
    Password  string // non-empty enables encryption of uploaded artifacts
}

// DeliveryConfig selects where produced artifacts are held for download.
type DeliveryConfig struct {
    Store    string // "memory"|"redis"
    TTL      time.Duration
    RedisURL string
    S3       S3Config
}

// Config is the top-level configuration.
type Config struct {
    Environment string
    Logging     LoggingConfig
    Axiom       AxiomConfig
    Server      ServerConfig
    Render      RenderConfig
    Compress    CompressConfig
    Word        WordConfig
    LibreOffice LibreOfficeConfig
    Delivery    DeliveryConfig
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("ENVIRONMENT", "production")
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("LOG_FILE", "")
    v.SetDefault("LOG_MAX_SIZE_MB", 100)
    v.SetDefault("LOG_MAX_BACKUPS", 10)
    v.SetDefault("LOG_MAX_AGE_DAYS", 30)
    v.SetDefault("LOG_COMPRESS", "true")
    v.SetDefault("SEND_LOGS_TO_AXIOM", "0")
    v.SetDefault("AXIOM_DATASET", "dev")
    v.SetDefault("AXIOM_FLUSH_INTERVAL", "10s")

    v.SetDefault("PORT", "8080")
    v.SetDefault("MAX_UPLOAD_MB", 64)
    v.SetDefault("WORKBENCH_IDLE_TTL", "30m")

    v.SetDefault("RASTER_SCALE", 1.5)
    v.SetDefault("RASTER_QUALITY", 90)

    v.SetDefault("COMPRESS_MODE", "metadata")
    v.SetDefault("COMPRESS_DPI", 96)
    v.SetDefault("COMPRESS_QUALITY", 60)

    v.SetDefault("WORD_PAGINATE", "false")

    v.SetDefault("LIBREOFFICE_ENABLED", "false")
    v.SetDefault("LIBREOFFICE_BINARY", "libreoffice")
    v.SetDefault("LIBREOFFICE_TIMEOUT", "120s")

    v.SetDefault("DELIVERY_STORE", "memory")
    v.SetDefault("DELIVERY_TTL", "15m")
    v.SetDefault("REDIS_URL", "redis://localhost:6379")
    v.SetDefault("S3_PREFIX", "doctools/")
    v.SetDefault("S3_REGION", "us-east-1")
}

// Load reads .env (if present), an optional YAML config file and the
// environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (Config, error) {
    _ = godotenv.Load()

    v := viper.New()
    setDefaults(v)
    v.AutomaticEnv()
    if path != "" {
        v.SetConfigFile(path)
        if err := v.ReadInConfig(); err != nil {
            return Config{}, fmt.Errorf("read config %s: %w", path, err)
        }
    }
    return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
    cfg := Config{Environment: strings.ToLower(v.GetString("ENVIRONMENT"))}

    pretty := v.GetString("LOG_PRETTY")
    if pretty == "" { pretty = devDefaultPretty(cfg.Environment) }
    cfg.Logging = LoggingConfig{
        Level:      v.GetString("LOG_LEVEL"),
        Pretty:     parseBool(pretty),
        File:       v.GetString("LOG_FILE"),
        MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
        MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
        MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
        Compress:   parseBool(v.GetString("LOG_COMPRESS")),
    }

    cfg.Axiom = AxiomConfig{
        Send:          parseBool(v.GetString("SEND_LOGS_TO_AXIOM")),
        APIKey:        v.GetString("AXIOM_API_KEY"),
        OrgID:         v.GetString("AXIOM_ORG_ID"),
        Dataset:       v.GetString("AXIOM_DATASET") + "_doctools",
        FlushInterval: parseDuration(v.GetString("AXIOM_FLUSH_INTERVAL"), 10*time.Second),
    }

    cfg.Server = ServerConfig{
        Port:        v.GetString("PORT"),
        MaxUploadMB: positiveInt(v.GetInt("MAX_UPLOAD_MB"), 64),
        IdleTTL:     parseDuration(v.GetString("WORKBENCH_IDLE_TTL"), 30*time.Minute),
    }

    cfg.Render = RenderConfig{
        Scale:   v.GetFloat64("RASTER_SCALE"),
        Quality: clampQuality(v.GetInt("RASTER_QUALITY"), 90),
    }
    if cfg.Render.Scale <= 0 { cfg.Render.Scale = 1.5 }

    cfg.Compress = CompressConfig{
        Mode:    strings.ToLower(v.GetString("COMPRESS_MODE")),
        DPI:     positiveInt(v.GetInt("COMPRESS_DPI"), 96),
        Quality: clampQuality(v.GetInt("COMPRESS_QUALITY"), 60),
    }

    cfg.Word = WordConfig{Paginate: parseBool(v.GetString("WORD_PAGINATE"))}

    cfg.LibreOffice = LibreOfficeConfig{
        Enabled: parseBool(v.GetString("LIBREOFFICE_ENABLED")),
        Binary:  v.GetString("LIBREOFFICE_BINARY"),
        Timeout: parseDuration(v.GetString("LIBREOFFICE_TIMEOUT"), 120*time.Second),
    }

    cfg.Delivery = DeliveryConfig{
        Store:    strings.ToLower(v.GetString("DELIVERY_STORE")),
        TTL:      parseDuration(v.GetString("DELIVERY_TTL"), 15*time.Minute),
        RedisURL: v.GetString("REDIS_URL"),
        S3: S3Config{
            Bucket:    v.GetString("S3_BUCKET"),
            Prefix:    v.GetString("S3_PREFIX"),
            Region:    v.GetString("S3_REGION"),
            Endpoint:  v.GetString("S3_ENDPOINT"),
            AccessKey: v.GetString("S3_ACCESS_KEY"),
            SecretKey: v.GetString("S3_SECRET_KEY"),
            Password:  v.GetString("S3_PASSWORD"),
        },
    }
    return cfg
}

// Helpers
func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil && d > 0 { return d }
    return def
}

func positiveInt(n, def int) int {
    if n <= 0 { return def }
    return n
}

func clampQuality(q, def int) int {
    if q <= 0 || q > 100 { return def }
    return q
}

func devDefaultPretty(env string) string {
    if env == "" { env = strings.ToLower(os.Getenv("ENVIRONMENT")) }
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
