package config

// EnvPrefix is the envconfig prefix shared by every RKFOOD_* variable.
const EnvPrefix = "RKFOOD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced in error messages and tests.
const (
	EnvAppEnv = "RKFOOD_APP_ENV"
	EnvPort   = "RKFOOD_APP_PORT"

	EnvDBDSN     = "RKFOOD_DB_DSN"
	EnvDBHost    = "RKFOOD_DB_HOST"
	EnvDBPort    = "RKFOOD_DB_PORT"
	EnvDBUser    = "RKFOOD_DB_USER"
	EnvDBName    = "RKFOOD_DB_NAME"
	EnvDBSSLMode = "RKFOOD_DB_SSLMODE"

	EnvRedisURL = "RKFOOD_REDIS_URL"

	EnvJWTSecret              = "RKFOOD_JWT_SECRET"
	EnvJWTIssuer              = "RKFOOD_JWT_ISSUER"
	EnvJWTExpMins             = "RKFOOD_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RKFOOD_REFRESH_TOKEN_TTL_MINUTES"
)

// legacyDBEnvVars are the discrete connection vars that must all be set
// when RKFOOD_DB_DSN is absent.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
