package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the dashboard server reads from the environment.
type Config struct {
	Port              string
	BackendEnv        string
	BackendURL        string
	BackendSocketURL  string
	BackendTimeout    time.Duration
	JWTSecret         string
	SessionTTL        time.Duration
	OrderPollInterval time.Duration
	AllowedOrigins    []string

	LogFile   string
	LogLevel  string
	LogStdout bool

	ArchiveEnabled bool
	DB             DBConfig
}

// DBConfig holds the archive database connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

const (
	defaultQAURL         = "https://api-qa.frostdispatch.com"
	defaultProductionURL = "https://api.frostdispatch.com"
)

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	backendEnv := strings.ToLower(getEnv("BACKEND_ENV", "qa"))
	backendURL := strings.TrimSpace(os.Getenv("BACKEND_URL"))
	if backendURL == "" {
		backendURL = ResolveBackendURL(backendEnv,
			getEnv("BACKEND_URL_QA", defaultQAURL),
			getEnv("BACKEND_URL_PRODUCTION", defaultProductionURL),
		)
	}
	backendURL = strings.TrimRight(backendURL, "/")

	socketURL := strings.TrimSpace(os.Getenv("BACKEND_SOCKET_URL"))
	if socketURL == "" {
		socketURL = SocketURLFor(backendURL)
	}

	return Config{
		Port:              getEnv("PORT", "8080"),
		BackendEnv:        backendEnv,
		BackendURL:        backendURL,
		BackendSocketURL:  strings.TrimRight(socketURL, "/"),
		BackendTimeout:    getDuration("BACKEND_TIMEOUT", 15*time.Second),
		JWTSecret:         getEnv("JWT_SECRET", "supersecret"),
		SessionTTL:        getDuration("SESSION_TTL", 12*time.Hour),
		OrderPollInterval: getDuration("ORDER_POLL_INTERVAL", 0),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),

		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogStdout: getBool("LOG_STDOUT", false),

		ArchiveEnabled: getBool("ARCHIVE_ENABLED", false),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
	}
}

// ResolveBackendURL picks the base URL for the selected backend environment.
// Anything other than "production"/"prod" is treated as QA.
func ResolveBackendURL(env, qaURL, productionURL string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return productionURL
	default:
		return qaURL
	}
}

// SocketURLFor derives the websocket base from an http(s) base URL.
func SocketURLFor(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", key, v, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
