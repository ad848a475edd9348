package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Agent gateway
	GatewayHost   string
	GatewayPort   string
	GatewayToken  string
	GatewaySocket string // "gorilla" or "coder"

	// Chat
	ChatTimeoutSeconds int

	// Memory files
	MemoryBase string

	// Health tips feed (refreshed outside the app)
	TipsFile string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBMaxConns:  getEnvAsIntOrDefault("DB_MAX_CONNS", 25),
		DBMinConns:  getEnvAsIntOrDefault("DB_MIN_CONNS", 5),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GatewayHost:   getEnvOrDefault("GATEWAY_HOST", "localhost"),
		GatewayPort:   getEnvOrDefault("GATEWAY_PORT", "18789"),
		GatewayToken:  getEnvOrDefault("GATEWAY_TOKEN", ""),
		GatewaySocket: getEnvOrDefault("GATEWAY_SOCKET", "gorilla"),

		ChatTimeoutSeconds: getEnvAsIntOrDefault("CHAT_TIMEOUT_SECONDS", 180),

		MemoryBase:  getEnvOrDefault("MEMORY_BASE", defaultMemoryBase()),
		TipsFile:    getEnvOrDefault("TIPS_FILE", "tips.json"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// GatewayURL returns the ws:// address of the agent gateway.
func (c *Config) GatewayURL() string {
	return fmt.Sprintf("ws://%s:%s", c.GatewayHost, c.GatewayPort)
}

// GatewayOrigin is sent as the Origin header when dialing the gateway.
func (c *Config) GatewayOrigin() string {
	return fmt.Sprintf("http://%s:%s", c.GatewayHost, c.GatewayPort)
}

func defaultMemoryBase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./memory"
	}
	return home + "/vital-dashboard/memory"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
