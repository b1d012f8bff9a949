package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	REST      RESTConfig
	Security  SecurityConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Schedule  ScheduleConfig
	Websocket WebsocketConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
}

type RESTConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

type SecurityConfig struct {
	JWTSecret    string
	JWTPublicKey string
}

type KafkaConfig struct {
	Brokers        []string
	GroupID        string
	ScheduleTopics []string
	// ScheduleActions filters schedule events by action; empty accepts every action.
	ScheduleActions []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether the Redis entry cache should be used instead of the in-memory one.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type ScheduleConfig struct {
	MergeDays     bool
	EntryCacheTTL time.Duration
	EndpointsFile string
	Endpoints     EndpointsConfig
}

// EndpointsConfig holds backend path overrides; blank entries keep the client's defaults.
type EndpointsConfig struct {
	List   string `yaml:"list"`
	Create string `yaml:"create"`
	Delete string `yaml:"delete"`
	Link   string `yaml:"link"`
	Unlink string `yaml:"unlink"`
	IsOpen string `yaml:"is_open"`
}

type WebsocketConfig struct {
	RefreshInterval time.Duration
	SendBuffer      int
}

type LoggingConfig struct {
	Level     string
	Format    string
	Directory string
}

// Load reads configuration from the environment. Callers load .env beforehand.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: getEnv("PORT", "8080")},
		REST: RESTConfig{
			BaseURL:   strings.TrimRight(getEnv("REST_BASE_URL", "http://localhost:3000"), "/"),
			Timeout:   getDuration("REST_TIMEOUT", 10*time.Second),
			RateLimit: getFloat("REST_RATE_LIMIT", 20),
			RateBurst: getInt("REST_RATE_BURST", 10),
		},
		Security: SecurityConfig{
			JWTSecret:    os.Getenv("JWT_SECRET"),
			JWTPublicKey: os.Getenv("JWT_PUBLIC_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers:         getList("KAFKA_BROKERS", getList("KAFKA_BROKER", nil)),
			GroupID:         getEnv("KAFKA_GROUP_ID", "delivery-panel"),
			ScheduleTopics:  getList("KAFKA_SCHEDULE_TOPICS", []string{"schedules.events"}),
			ScheduleActions: getList("KAFKA_SCHEDULE_ACTIONS", []string{"created", "updated", "deleted", "linked", "unlinked"}),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Schedule: ScheduleConfig{
			MergeDays:     getBool("SCHEDULE_MERGE_DAYS", false),
			EntryCacheTTL: getDuration("ENTRY_CACHE_TTL", 15*time.Minute),
			EndpointsFile: os.Getenv("SCHEDULE_ENDPOINTS_FILE"),
		},
		Websocket: WebsocketConfig{
			RefreshInterval: getDuration("OPEN_STATE_REFRESH_INTERVAL", time.Minute),
			SendBuffer:      getInt("WS_SEND_BUFFER", 16),
		},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			Directory: getEnv("LOG_DIR", "./logs"),
		},
	}

	if cfg.Schedule.EndpointsFile != "" {
		paths, err := LoadEndpointPaths(cfg.Schedule.EndpointsFile)
		if err != nil {
			return nil, err
		}
		cfg.Schedule.Endpoints = paths
	}

	if cfg.Security.JWTSecret == "" && cfg.Security.JWTPublicKey == "" {
		return nil, errors.New("config: JWT_SECRET or JWT_PUBLIC_KEY is required")
	}
	return cfg, nil
}

type endpointFile struct {
	Schedules EndpointsConfig `yaml:"schedules"`
}

// LoadEndpointPaths reads backend path templates from a YAML file with ${ENV_VAR} placeholders
// expanded. Paths the file leaves out stay blank.
func LoadEndpointPaths(path string) (EndpointsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EndpointsConfig{}, fmt.Errorf("config: read endpoints file: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var file endpointFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return EndpointsConfig{}, fmt.Errorf("config: parse endpoints file: %w", err)
	}
	return file.Schedules, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("30s") and bare seconds ("30").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
