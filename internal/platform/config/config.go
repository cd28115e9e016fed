package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration for the API server and the batch CLI.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	JWTScope      string
	LogLevel      string
	LogFormat     string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	OCR      OCRConfig
	Document DocumentConfig
	Engine   EngineConfig
	Batch    BatchConfig

	RefNumURL     string
	RefNumTimeout time.Duration

	ShutdownTimeout time.Duration
}

// RedisConfig configures the OCR line cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the audit publisher. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
	Partitions int
}

// OCRConfig configures the OCR sidecar and the engine pool.
type OCRConfig struct {
	URL     string
	Timeout time.Duration
	Workers int

	// Preprocess denoises and sharpens each page before recognition.
	Preprocess bool
}

// DocumentConfig configures document retrieval and rasterization.
type DocumentConfig struct {
	BaseURL        string
	FetchTimeout   time.Duration
	FetchRetries   int
	FetchRateEvery time.Duration
	FetchBurst     int
	MaxBytes       int64
	RasterDPI      int
	RasterTimeout  time.Duration
}

// EngineConfig is copied into decision.Config at startup.
type EngineConfig struct {
	NameThreshold int
	DOBPolicy     string
}

// BatchConfig configures batch verification.
type BatchConfig struct {
	Workers  int
	Interval time.Duration
	// PendingOnly limits stored batches to applicants not yet verified.
	PendingOnly bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          envStr("DOCVERIFY_ADDR", ":8080"),
		JWTSigningKey: envStr("JWT_SIGNING_KEY", ""),
		JWTIssuer:     envStr("JWT_ISSUER", "docverify"),
		JWTAudience:   envStr("JWT_AUDIENCE", "docverify-api"),
		JWTScope:      envStr("JWT_SCOPE", "verify"),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		LogFormat:     envStr("LOG_FORMAT", "json"),

		DatabaseURL: envStr("DATABASE_URL", ""),
		Redis: RedisConfig{
			URL:          envStr("REDIS_URL", ""),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDur("OCR_CACHE_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envStr("KAFKA_AUDIT_TOPIC", "docverify.audit"),
			Partitions: envInt("KAFKA_AUDIT_PARTITIONS", 3),
		},

		OCR: OCRConfig{
			URL:     envStr("OCR_URL", "http://localhost:8866"),
			Timeout: envDur("OCR_TIMEOUT", 60*time.Second),
			Workers: envInt("OCR_WORKERS", 4),

			Preprocess: envBool("OCR_PREPROCESS", false),
		},
		Document: DocumentConfig{
			BaseURL:        envStr("DOCUMENT_BASE_URL", ""),
			FetchTimeout:   envDur("FETCH_TIMEOUT", 10*time.Second),
			FetchRetries:   envInt("FETCH_RETRIES", 3),
			FetchRateEvery: envDur("FETCH_RATE_EVERY", 100*time.Millisecond),
			FetchBurst:     envInt("FETCH_BURST", 8),
			MaxBytes:       int64(envInt("MAX_DOCUMENT_BYTES", 10<<20)),
			RasterDPI:      envInt("RASTER_DPI", 150),
			RasterTimeout:  envDur("RASTER_TIMEOUT", 30*time.Second),
		},
		Engine: EngineConfig{
			NameThreshold: envInt("NAME_THRESHOLD", 70),
			DOBPolicy:     envStr("DOB_POLICY", "strict"),
		},
		Batch: BatchConfig{
			Workers:     envInt("BATCH_WORKERS", 4),
			Interval:    envDur("BATCH_INTERVAL", 0),
			PendingOnly: envBool("BATCH_PENDING_ONLY", true),
		},

		RefNumURL:     envStr("REFNUM_URL", ""),
		RefNumTimeout: envDur("REFNUM_TIMEOUT", 10*time.Second),

		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Validate reports every invalid setting at once.
func (c Server) Validate() error {
	var errs []error
	if strings.TrimSpace(c.OCR.URL) == "" {
		errs = append(errs, errors.New("OCR_URL is required"))
	}
	if c.Engine.NameThreshold > 100 {
		errs = append(errs, fmt.Errorf("NAME_THRESHOLD must be at most 100, got %d", c.Engine.NameThreshold))
	}
	switch c.Engine.DOBPolicy {
	case "strict", "year_only":
	default:
		errs = append(errs, fmt.Errorf("DOB_POLICY must be strict or year_only, got %q", c.Engine.DOBPolicy))
	}
	if c.JWTSigningKey != "" && len(c.JWTSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 characters"))
	}
	return errors.Join(errs...)
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList splits a comma separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
