package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	SMTP          SMTPConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"RKFOOD_APP_ENV" required:"true"`
	Port         string `envconfig:"RKFOOD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RKFOOD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RKFOOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RKFOOD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RKFOOD_DB_DSN"`
	Driver string `envconfig:"RKFOOD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RKFOOD_DB_HOST"`
	LegacyPort     int    `envconfig:"RKFOOD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RKFOOD_DB_USER"`
	LegacyPassword string `envconfig:"RKFOOD_DB_PASSWORD"`
	LegacyName     string `envconfig:"RKFOOD_DB_NAME"`
	LegacySSLMode  string `envconfig:"RKFOOD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RKFOOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RKFOOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RKFOOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RKFOOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RKFOOD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RKFOOD_REDIS_ADDR"`
	Password     string        `envconfig:"RKFOOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"RKFOOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RKFOOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RKFOOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RKFOOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RKFOOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RKFOOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RKFOOD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RKFOOD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"RKFOOD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"RKFOOD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RKFOOD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RKFOOD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RKFOOD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RKFOOD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RKFOOD_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"RKFOOD_OTP_TTL" default:"10m"`
	Digits      int           `envconfig:"RKFOOD_OTP_DIGITS" default:"6"`
	MaxAttempts int           `envconfig:"RKFOOD_OTP_MAX_ATTEMPTS" default:"5"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RKFOOD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RKFOOD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RKFOOD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RKFOOD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RKFOOD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RKFOOD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type SMTPConfig struct {
	Host        string `envconfig:"RKFOOD_SMTP_HOST"`
	Port        int    `envconfig:"RKFOOD_SMTP_PORT" default:"587"`
	Username    string `envconfig:"RKFOOD_SMTP_USERNAME"`
	Password    string `envconfig:"RKFOOD_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"RKFOOD_SMTP_FROM_EMAIL"`
}

// Enabled reports whether outbound mail is configured at all. When false
// the notification service logs instead of sending.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.DefaultFrom != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RKFOOD_AUTO_MIGRATE" default:"false"`
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
