package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Admission AdmissionConfig
	Import    ImportConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig guards the mutating endpoints with a single admin credential.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ProgramSeats defines one admission program and its fixed seat capacity.
type ProgramSeats struct {
	Code  string
	Name  string
	Seats int
}

// AdmissionConfig holds the closed program enumeration and campaign days.
// Capacities are configuration, never snapshot data.
type AdmissionConfig struct {
	Programs []ProgramSeats
	Days     []string
	CacheTTL time.Duration
}

// ImportConfig locates the per-day CSV exports.
type ImportConfig struct {
	DataDir      string
	AutoEnabled  bool
	AutoCronSpec string
}

// ReportsConfig configures asynchronous PDF report generation.
type ReportsConfig struct {
	StorageDir        string
	ResultTTL         time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ProgramByCode resolves a program definition from the configured set.
func (c AdmissionConfig) ProgramByCode(code string) (ProgramSeats, bool) {
	for _, p := range c.Programs {
		if p.Code == code {
			return p, true
		}
	}
	return ProgramSeats{}, false
}

// ProgramCodes returns program codes in their configured display order.
func (c AdmissionConfig) ProgramCodes() []string {
	codes := make([]string, 0, len(c.Programs))
	for _, p := range c.Programs {
		codes = append(codes, p.Code)
	}
	return codes
}

// Capacities returns the seat table keyed by program code.
func (c AdmissionConfig) Capacities() map[string]int {
	caps := make(map[string]int, len(c.Programs))
	for _, p := range c.Programs {
		caps[p.Code] = p.Seats
	}
	return caps
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	programs, err := parsePrograms(v.GetString("ADMISSION_PROGRAMS"))
	if err != nil {
		return nil, err
	}
	cfg.Admission = AdmissionConfig{
		Programs: programs,
		Days:     splitAndTrim(v.GetString("ADMISSION_DAYS")),
		CacheTTL: parseDuration(v.GetString("ADMISSION_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Import = ImportConfig{
		DataDir:      v.GetString("IMPORT_DATA_DIR"),
		AutoEnabled:  v.GetBool("IMPORT_AUTO_ENABLED"),
		AutoCronSpec: v.GetString("IMPORT_AUTO_CRON"),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		ResultTTL:         parseDuration(v.GetString("REPORTS_RESULT_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "uni_admission")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("ADMIN_USERNAME", "admin")
	// bcrypt hash of "admin", for local development only
	v.SetDefault("ADMIN_PASSWORD_HASH", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMISSION_PROGRAMS", "PM:PM:40,IVT:IVT:50,ITSS:ITSS:30,IB:IB:20")
	v.SetDefault("ADMISSION_DAYS", "2025-08-01,2025-08-02,2025-08-03,2025-08-04")
	v.SetDefault("ADMISSION_CACHE_TTL", "10m")

	v.SetDefault("IMPORT_DATA_DIR", "./data")
	v.SetDefault("IMPORT_AUTO_ENABLED", false)
	v.SetDefault("IMPORT_AUTO_CRON", "0 6 * * *")

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
	v.SetDefault("REPORTS_RESULT_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
}

// parsePrograms decodes a "code:name:seats" comma list into program
// definitions, rejecting duplicates and non-positive capacities.
func parsePrograms(raw string) ([]ProgramSeats, error) {
	entries := splitAndTrim(raw)
	if len(entries) == 0 {
		return nil, fmt.Errorf("ADMISSION_PROGRAMS must define at least one program")
	}

	seen := make(map[string]struct{}, len(entries))
	programs := make([]ProgramSeats, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid program entry %q, want code:name:seats", entry)
		}
		code := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		seats, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("invalid seat count in program entry %q: %w", entry, err)
		}
		if code == "" || name == "" {
			return nil, fmt.Errorf("invalid program entry %q, empty code or name", entry)
		}
		if seats <= 0 {
			return nil, fmt.Errorf("program %s must have a positive seat capacity", code)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("duplicate program code %s", code)
		}
		seen[code] = struct{}{}
		programs = append(programs, ProgramSeats{Code: code, Name: name, Seats: seats})
	}
	return programs, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
