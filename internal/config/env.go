package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	Port        string
	LogMode     string
	CORSOrigins []string
	MaxUploadMB int

	// blob storage
	ObjectStore   string
	BlobContainer string
	AwsAccessKey  string
	AwsSecretKey  string
	AwsRegion     string
	S3Endpoint    string
	GCPProjectID  string

	// document recognition
	Recognizer         string
	DocAIProjectID     string
	DocAILocation      string
	DocAIProcessorID   string
	DocAIProcessorVer  string
	RecognitionTimeout time.Duration

	// model providers
	AIProvider    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AIAPIKey      string
	EmbedModel    string
	EmbedDim      int
	GenModel      string

	// enrichment
	EmbedMaxAttempts     int
	EmbedRetryDelay      time.Duration
	TranslateLocale      string
	TranslateOnlyMissing bool
	EnrichConcurrency    int
	RedisURL             string
	EmbedCacheTTL        time.Duration

	// synthetic data
	SyntheticTarget       int
	SyntheticBatch        int
	SyntheticMaxRounds    int
	SyntheticDefaultTable string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8888"}),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 32),

		ObjectStore:   strings.ToLower(getEnv("OBJECT_STORE", "s3")),
		BlobContainer: getEnv("BLOB_CONTAINER", "inventory-forms"),
		AwsAccessKey:  getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:  getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:     getEnv("AWS_REGION", "us-east-2"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		GCPProjectID:  getEnv("GCP_PROJECT_ID", ""),

		Recognizer:         strings.ToLower(getEnv("RECOGNIZER", "documentai")),
		DocAIProjectID:     getEnv("DOCUMENTAI_PROJECT_ID", getEnv("GCP_PROJECT_ID", "")),
		DocAILocation:      getEnv("DOCUMENTAI_LOCATION", "us"),
		DocAIProcessorID:   getEnv("DOCUMENTAI_PROCESSOR_ID", ""),
		DocAIProcessorVer:  getEnv("DOCUMENTAI_PROCESSOR_VERSION", ""),
		RecognitionTimeout: getEnvDuration("RECOGNITION_TIMEOUT", 3*time.Minute),

		AIProvider:    strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		EmbedModel:    getEnv("EMBED_MODEL", ""),
		EmbedDim:      getEnvInt("EMBED_DIM", 1536),
		GenModel:      getEnv("GEN_MODEL", ""),

		EmbedMaxAttempts:     getEnvInt("EMBED_MAX_ATTEMPTS", 5),
		EmbedRetryDelay:      getEnvDuration("EMBED_RETRY_DELAY", 500*time.Millisecond),
		TranslateLocale:      getEnv("TRANSLATE_LOCALE", "es"),
		TranslateOnlyMissing: getEnvBool("TRANSLATE_ONLY_MISSING", true),
		EnrichConcurrency:    getEnvInt("ENRICH_CONCURRENCY", 4),
		RedisURL:             getEnv("REDIS_URL", ""),
		EmbedCacheTTL:        getEnvDuration("EMBED_CACHE_TTL", 24*time.Hour),

		SyntheticTarget:       getEnvInt("SYNTHETIC_TARGET", 50),
		SyntheticBatch:        getEnvInt("SYNTHETIC_BATCH", 50),
		SyntheticMaxRounds:    getEnvInt("SYNTHETIC_MAX_ROUNDS", 8),
		SyntheticDefaultTable: getEnv("SYNTHETIC_DEFAULT_TABLE", "Demo_Inventory"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("750ms", "2m") or a bare integer of milliseconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
