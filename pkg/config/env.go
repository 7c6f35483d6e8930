package config

const (
	// EnvPrefix is empty: the variable names are shared with existing deployments.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MinBcryptCost = 12

	EnvAppEnv            = "APP_ENV"
	EnvHost              = "HOST"
	EnvPort              = "PORT"
	EnvLogLevel          = "LOG_LEVEL"
	EnvAllowedOrigins    = "ALLOWED_ORIGINS"
	EnvDBServer          = "DB_SERVER"
	EnvDBDriver          = "DB_DRIVER"
	EnvDBNameNormales    = "DB_NAME_NORMALES"
	EnvDBNameClientes    = "DB_NAME_CLIENTES"
	EnvSecretKey         = "SECRET_KEY"
	EnvSessionHours      = "SESSION_DURATION_HOURS"
	EnvMaxLoginAttempts  = "MAX_LOGIN_ATTEMPTS"
	EnvLoginTimeout      = "LOGIN_TIMEOUT_SECONDS"
	EnvStrictCredentials = "AUTH_STRICT_CREDENTIALS"
	EnvBcryptCost        = "BCRYPT_COST"
	EnvRedisURL          = "REDIS_URL"
	EnvUploadsDir        = "UPLOADS_DIR"
	EnvMaxUploadMB       = "MAX_UPLOAD_MB"
)
