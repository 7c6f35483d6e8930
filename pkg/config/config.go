package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit LoginRateLimitConfig
	Audit     AuditConfig
	Uploads   UploadsConfig
	Reports   ReportsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSNs(); err != nil {
		return nil, err
	}
	if err := cfg.Auth.validate(cfg.App.IsProd()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string `envconfig:"APP_ENV" default:"dev"`
	Host           string `envconfig:"HOST" default:"0.0.0.0"`
	Port           string `envconfig:"PORT" default:"5000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack   bool   `envconfig:"LOG_WARN_STACK" default:"false"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	LogsDir        string `envconfig:"LOGS_DIR" default:"logs"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5000,http://127.0.0.1:5000"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ConsoleLogs reports whether LOG_FORMAT asks for human readable output.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(a.LogFormat, "console")
}

// Addr is the listen address built from HOST and PORT.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// Origins splits ALLOWED_ORIGINS into a clean list.
func (a AppConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(a.AllowedOrigins, ",") {
		if o := strings.TrimSpace(origin); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DBConfig describes both logical databases. They share a server and driver
// and differ only by database name.
type DBConfig struct {
	Server       string `envconfig:"DB_SERVER" default:"localhost:5432"`
	NameNormales string `envconfig:"DB_NAME_NORMALES" default:"MiPastel"`
	NameClientes string `envconfig:"DB_NAME_CLIENTES" default:"MiPastel_Clientes"`
	Driver       string `envconfig:"DB_DRIVER" default:"postgres"`
	User         string `envconfig:"DB_USER"`
	Password     string `envconfig:"DB_PASSWORD"`
	SSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Populated by Load.
	NormalesDSN string `ignored:"true"`
	ClientesDSN string `ignored:"true"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a shared Redis instance was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type AuthConfig struct {
	SecretKey            string `envconfig:"SECRET_KEY"`
	SessionDurationHours int    `envconfig:"SESSION_DURATION_HOURS" default:"8"`
	MaxLoginAttempts     int    `envconfig:"MAX_LOGIN_ATTEMPTS" default:"5"`
	LoginTimeoutSeconds  int    `envconfig:"LOGIN_TIMEOUT_SECONDS" default:"300"`
	PasswordHashesFile   string `envconfig:"PASSWORD_HASHES_FILE" default:".password_hashes.json"`
	AdminPasswordHash    string `envconfig:"ADMIN_PASSWORD_HASH"`
	StrictCredentials    bool   `envconfig:"AUTH_STRICT_CREDENTIALS" default:"false"`
	BcryptCost           int    `envconfig:"BCRYPT_COST" default:"12"`
	SecureCookies        bool   `envconfig:"SECURE_COOKIES" default:"false"`

	// SecretGenerated is set when SECRET_KEY was absent and a random one was used.
	SecretGenerated bool `ignored:"true"`
}

// SessionDuration returns the cookie lifetime.
func (a AuthConfig) SessionDuration() time.Duration {
	return time.Duration(a.SessionDurationHours) * time.Hour
}

// LoginTimeout returns the throttle window.
func (a AuthConfig) LoginTimeout() time.Duration {
	return time.Duration(a.LoginTimeoutSeconds) * time.Second
}

// LoginRateLimitConfig is the per-IP limit applied in front of POST /login.
type LoginRateLimitConfig struct {
	Window  time.Duration `envconfig:"LOGIN_IP_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"LOGIN_IP_LIMIT" default:"30"`
}

type AuditConfig struct {
	FileName   string `envconfig:"AUDIT_FILE" default:"audit.log"`
	MaxSizeMB  int    `envconfig:"AUDIT_MAX_SIZE_MB" default:"10"`
	MaxBackups int    `envconfig:"AUDIT_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `envconfig:"AUDIT_MAX_AGE_DAYS" default:"0"`
}

type UploadsConfig struct {
	Dir         string `envconfig:"UPLOADS_DIR" default:"static/uploads"`
	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB" default:"5"`
}

// MaxBytes returns the upload size cap.
func (u UploadsConfig) MaxBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

type ReportsConfig struct {
	Dir     string        `envconfig:"REPORTS_DIR" default:"pdf_reports"`
	Timeout time.Duration `envconfig:"REPORT_TIMEOUT" default:"30s"`
}

// SecureCookies forces the Secure flag in production regardless of
// SECURE_COOKIES.
func (c *Config) SecureCookies() bool {
	return c.Auth.SecureCookies || c.App.IsProd()
}

// AuditPath joins the logs directory and the audit file name.
func (c *Config) AuditPath() string {
	return filepath.Join(c.App.LogsDir, c.Audit.FileName)
}

// AppLogPath is the rotating operational log file.
func (c *Config) AppLogPath() string {
	return filepath.Join(c.App.LogsDir, "app.log")
}

func (a *AuthConfig) validate(prod bool) error {
	if a.BcryptCost < MinBcryptCost {
		return fmt.Errorf("%s must be at least %d", EnvBcryptCost, MinBcryptCost)
	}
	if a.MaxLoginAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxLoginAttempts)
	}
	if a.LoginTimeoutSeconds <= 0 {
		return fmt.Errorf("%s must be positive", EnvLoginTimeout)
	}
	if a.SessionDurationHours <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionHours)
	}
	if strings.TrimSpace(a.SecretKey) == "" {
		if a.StrictCredentials {
			return fmt.Errorf("%s is required when %s is enabled", EnvSecretKey, EnvStrictCredentials)
		}
		if prod {
			return fmt.Errorf("%s is required when APP_ENV=%s", EnvSecretKey, AppEnvProd)
		}
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		a.SecretKey = secret
		a.SecretGenerated = true
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (db *DBConfig) ensureDSNs() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DriverPostgres:
		db.NormalesDSN = db.postgresDSN(db.NameNormales)
		db.ClientesDSN = db.postgresDSN(db.NameClientes)
	case DriverSQLite:
		db.NormalesDSN = sqliteDSN(db.Server, db.NameNormales)
		db.ClientesDSN = sqliteDSN(db.Server, db.NameClientes)
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DriverPostgres, DriverSQLite, db.Driver)
	}

	missing := []string{}
	if db.NameNormales == "" {
		missing = append(missing, EnvDBNameNormales)
	}
	if db.NameClientes == "" {
		missing = append(missing, EnvDBNameClientes)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s are required", strings.Join(missing, ", "))
	}
	if db.NameNormales == db.NameClientes {
		return fmt.Errorf("%s and %s must name different databases", EnvDBNameNormales, EnvDBNameClientes)
	}
	return nil
}

func (db *DBConfig) postgresDSN(name string) string {
	server := db.Server
	if server == "" {
		server = "localhost:5432"
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   server,
		Path:   name,
	}
	if db.User != "" {
		u.User = url.User(db.User)
		if db.Password != "" {
			u.User = url.UserPassword(db.User, db.Password)
		}
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// sqliteDSN treats DB_SERVER as a directory (":memory:" for throwaway databases).
func sqliteDSN(server, name string) string {
	if server == ":memory:" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	}
	if server == "" {
		server = "."
	}
	return filepath.Join(server, name+".db")
}
