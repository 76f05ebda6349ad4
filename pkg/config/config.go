package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GAMESAGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GAMESAGE_DB_DSN"
	EnvDBHost = "GAMESAGE_DB_HOST"
	EnvDBUser = "GAMESAGE_DB_USER"
	EnvDBName = "GAMESAGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	AdminSeed     AdminSeedConfig
	Cloudinary    CloudinaryConfig
	Media         MediaConfig
	OpenAI        OpenAIConfig
	Cron          CronConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GAMESAGE_APP_ENV" required:"true"`
	Port         string `envconfig:"GAMESAGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GAMESAGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GAMESAGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GAMESAGE_DB_DSN"`
	Driver string `envconfig:"GAMESAGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GAMESAGE_DB_HOST"`
	LegacyPort     int    `envconfig:"GAMESAGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GAMESAGE_DB_USER"`
	LegacyPassword string `envconfig:"GAMESAGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GAMESAGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GAMESAGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GAMESAGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GAMESAGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GAMESAGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GAMESAGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GAMESAGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GAMESAGE_REDIS_ADDR"`
	Password     string        `envconfig:"GAMESAGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GAMESAGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GAMESAGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GAMESAGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GAMESAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GAMESAGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GAMESAGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GAMESAGE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GAMESAGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GAMESAGE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GAMESAGE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GAMESAGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GAMESAGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GAMESAGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GAMESAGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GAMESAGE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GAMESAGE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GAMESAGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GAMESAGE_AUTO_MIGRATE" default:"false"`
	SeedAdmin   bool `envconfig:"GAMESAGE_SEED_ADMIN" default:"false"`
}

type AdminSeedConfig struct {
	Email     string `envconfig:"GAMESAGE_ADMIN_EMAIL"`
	Password  string `envconfig:"GAMESAGE_ADMIN_PASSWORD"`
	FirstName string `envconfig:"GAMESAGE_ADMIN_FIRST_NAME" default:"GameSage"`
	LastName  string `envconfig:"GAMESAGE_ADMIN_LAST_NAME" default:"Admin"`
}

type CloudinaryConfig struct {
	CloudName     string        `envconfig:"GAMESAGE_CLOUDINARY_CLOUD_NAME" required:"true"`
	APIKey        string        `envconfig:"GAMESAGE_CLOUDINARY_API_KEY" required:"true"`
	APISecret     string        `envconfig:"GAMESAGE_CLOUDINARY_API_SECRET" required:"true"`
	UploadTimeout time.Duration `envconfig:"GAMESAGE_CLOUDINARY_UPLOAD_TIMEOUT" default:"60s"`
	BaseURL       string        `envconfig:"GAMESAGE_CLOUDINARY_BASE_URL" default:"https://api.cloudinary.com"`
}

type MediaConfig struct {
	MaxUploadMB  int      `envconfig:"GAMESAGE_MAX_UPLOAD_MB" default:"25"`
	AllowedTypes []string `envconfig:"GAMESAGE_MEDIA_ALLOWED_TYPES" default:"image/jpeg,image/png,image/webp,image/gif"`
}

type OpenAIConfig struct {
	APIKey  string        `envconfig:"GAMESAGE_OPENAI_API_KEY"`
	Model   string        `envconfig:"GAMESAGE_OPENAI_MODEL" default:"gpt-4o-mini"`
	BaseURL string        `envconfig:"GAMESAGE_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Timeout time.Duration `envconfig:"GAMESAGE_OPENAI_TIMEOUT" default:"120s"`
}

type CronConfig struct {
	TickInterval     time.Duration `envconfig:"GAMESAGE_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL          time.Duration `envconfig:"GAMESAGE_CRON_LOCK_TTL" default:"5m"`
	MediaSweepEvery  time.Duration `envconfig:"GAMESAGE_CRON_MEDIA_SWEEP_EVERY" default:"1h"`
	MediaSweepDryRun bool          `envconfig:"GAMESAGE_CRON_MEDIA_SWEEP_DRY_RUN" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GAMESAGE_CORS_ALLOWED_ORIGINS" default:"http://localhost:4200"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
