package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Server
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Redis
	RedisURL           string
	RateLimitPerMinute int

	// Auth
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	// QR
	QRSecret string

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	// Payments
	PaymentWebhookSecret string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", "10s"),
		CORSOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "tickets"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBPath:     getEnv("DB_PATH", "tickets.db"),

		RedisURL:           getEnv("REDIS_URL", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", "24h"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		QRSecret: os.Getenv("QR_SECRET"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "tickets@localhost"),
		MailFromName: getEnv("MAIL_FROM_NAME", "Tickets"),

		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.QRSecret == "" {
		errs = append(errs, errors.New("QR_SECRET is required"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE cannot be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) dialector() gorm.Dialector {
	if c.DBDriver == DriverSQLite {
		return sqlite.Open(c.DBPath)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
	return postgres.Open(dsn)
}

// InitDatabase opens the configured database, migrates the schema and seeds
// the bootstrap admin.
func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := OpenDatabase(cfg.dialector())
	if err != nil {
		return nil, err
	}
	if err := prepareDatabase(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// prepareDatabase tunes the pool and seeds the admin. The connection pool is
// closed when it fails.
func prepareDatabase(db *gorm.DB, cfg *Config) (err error) {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sqlDB.Close()
		}
	}()

	if cfg.DBDriver == DriverSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	return seedAdmin(db, cfg.AdminEmail, cfg.AdminPassword)
}

// OpenDatabase opens a gorm handle with error translation enabled and runs
// the migrations.
func OpenDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.Ticket{}, &models.Staff{}); err != nil {
		return nil, err
	}
	return db, nil
}

func seedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing models.Staff
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.Staff{Email: email, Password: string(hashed), Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	slog.Info("seeded bootstrap admin", "email", email)
	return nil
}

// InitRedis returns nil when REDIS_URL is unset.
func InitRedis(ctx context.Context, cfg *Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if duration, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	var values []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
