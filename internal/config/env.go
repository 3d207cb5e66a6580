package config

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// PreviewConfig controls page selection and rendering.
type PreviewConfig struct {
    Mode        string // "spread"|"excerpt"
    SkipBlank   bool
    DPI         int
    Color       string // "rgb"|"gray"
    ThumbWidth  int
    ThumbHeight int
}

// OutputConfig controls where exported pages go.
type OutputConfig struct {
    Dir   string
    S3URL string // optional s3://bucket/prefix mirror
}

// StorageConfig configures the S3 client. Empty keys fall back to the AWS default chain.
type StorageConfig struct {
    Region    string
    Endpoint  string
    AccessKey string
    SecretKey string
    PathStyle bool
}

// WebConfig configures the HTTP picker.
type WebConfig struct {
    Addr     string
    Username string
    Password string
}

// CoverConfig configures cover candidate filtering.
type CoverConfig struct {
    MinWidth    int
    MinHeight   int
    Blacklist   []string
    MaxText     int // 0 disables the OCR filter
    OCRLanguage string
}

// HTTPConfig configures outbound HTTP fetches (remote PDFs and cover images).
type HTTPConfig struct {
    Timeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Preview PreviewConfig
    Output  OutputConfig
    Storage StorageConfig
    Web     WebConfig
    Cover   CoverConfig
    HTTP    HTTPConfig
}

// Load reads an optional .env file and then builds the configuration from the environment.
// Variables already set in the environment win over .env values.
func Load(files ...string) Config {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if _, err := os.Stat(f); err == nil {
            _ = godotenv.Load(f)
        }
    }
    return FromEnv()
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", ""),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfpreview",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Preview = PreviewConfig{
        Mode:        strings.ToLower(getEnv("PREVIEW_MODE", "spread")),
        SkipBlank:   parseBool(getEnv("PREVIEW_SKIP_BLANK", "false")),
        DPI:         parseInt(getEnv("RENDER_DPI", "150"), 150),
        Color:       strings.ToLower(getEnv("RENDER_COLOR", "rgb")),
        ThumbWidth:  parseInt(getEnv("THUMB_WIDTH", "120"), 120),
        ThumbHeight: parseInt(getEnv("THUMB_HEIGHT", "160"), 160),
    }
    if cfg.Preview.DPI <= 0 { cfg.Preview.DPI = 150 }

    cfg.Output = OutputConfig{
        Dir:   getEnv("OUTPUT_DIR", "."),
        S3URL: getEnv("OUTPUT_S3_URL", ""),
    }

    cfg.Storage = StorageConfig{
        Region:    getEnv("AWS_REGION", ""),
        Endpoint:  getEnv("S3_ENDPOINT", ""),
        AccessKey: getEnv("S3_ACCESS_KEY", ""),
        SecretKey: getEnv("S3_SECRET_KEY", ""),
        PathStyle: parseBool(getEnv("S3_PATH_STYLE", "false")),
    }

    cfg.Web = WebConfig{
        Addr:     getEnv("WEB_ADDR", "127.0.0.1:8080"),
        Username: getEnv("WEB_USERNAME", ""),
        Password: getEnv("WEB_PASSWORD", ""),
    }

    cfg.Cover = CoverConfig{
        MinWidth:    parseInt(getEnv("COVER_MIN_WIDTH", "300"), 300),
        MinHeight:   parseInt(getEnv("COVER_MIN_HEIGHT", "300"), 300),
        Blacklist:   parseList(getEnv("COVER_BLACKLIST", "logo,icon,banner,sprite")),
        MaxText:     parseInt(getEnv("COVER_MAX_TEXT", "0"), 0),
        OCRLanguage: getEnv("COVER_OCR_LANG", "eng"),
    }

    cfg.HTTP = HTTPConfig{
        Timeout: parseDuration(getEnv("HTTP_TIMEOUT", "20s"), 20*time.Second),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func parseList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
