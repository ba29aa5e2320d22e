package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Storage  StorageConfig
	TTS      TTSConfig
	Output   OutputConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string // empty: the embedded migrations
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type StorageConfig struct {
	SupabaseURL string
	SupabaseKey string
	Bucket      string
}

// TTSConfig selects the synthesis backend and the voice every page is read with.
type TTSConfig struct {
	Backend string // "google", "openai" or "local"

	LanguageCode  string
	VoiceName     string
	AudioEncoding string // "MP3", "LINEAR16" or "OGG_OPUS"
	SpeakingRate  float64
	MaxChars      int

	GoogleCredentialsFile string // empty: application default credentials
	GoogleAPIKey          string
	GoogleEndpoint        string
	Debug                 bool // log outgoing synthesis requests

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAIVoice   string

	LocalBinPath string // default: "piper"
	LocalModel   string // required when backend=local
}

type OutputConfig struct {
	Root        string
	DefaultFile string
}

type WorkerConfig struct {
	Concurrency int
	WorkDir     string
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	speakingRate, err := getEnvFloat("TTS_SPEAKING_RATE", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_SPEAKING_RATE: %w", err)
	}

	maxChars, err := getEnvInt("TTS_MAX_CHARS", 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MAX_CHARS: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Storage: StorageConfig{
			SupabaseURL: getEnv("SUPABASE_URL", ""),
			SupabaseKey: getEnv("SUPABASE_SERVICE_KEY", ""),
			Bucket:      getEnv("STORAGE_BUCKET", "narrations"),
		},
		TTS: TTSConfig{
			Backend:               getEnv("TTS_BACKEND", "google"),
			LanguageCode:          getEnv("TTS_LANGUAGE_CODE", "en-US"),
			VoiceName:             getEnv("TTS_VOICE_NAME", "en-US-Wavenet-A"),
			AudioEncoding:         strings.ToUpper(getEnv("TTS_AUDIO_ENCODING", "MP3")),
			SpeakingRate:          speakingRate,
			MaxChars:              maxChars,
			GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			GoogleAPIKey:          getEnv("GOOGLE_TTS_API_KEY", ""),
			GoogleEndpoint:        getEnv("GOOGLE_TTS_ENDPOINT", ""),
			Debug:                 getEnvBool("TTS_DEBUG", false),
			OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:         getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:           getEnv("TTS_OPENAI_MODEL", ""),
			OpenAIVoice:           getEnv("TTS_OPENAI_VOICE", ""),
			LocalBinPath:          getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
			LocalModel:            getEnv("TTS_LOCAL_PIPER_MODEL", ""),
		},
		Output: OutputConfig{
			Root:        getEnv("OUTPUT_ROOT", "."),
			DefaultFile: getEnv("DEFAULT_PDF", "RLbook2018.pdf"),
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
			WorkDir:     getEnv("WORKER_WORK_DIR", os.TempDir()),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks the settings the API server and worker cannot run without.
// The CLI only needs the TTS section and never calls it.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Storage.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
