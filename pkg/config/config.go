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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Membership    MembershipConfig
	Cron          CronConfig
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
	Env          string `envconfig:"RETECHCI_APP_ENV" required:"true"`
	Port         string `envconfig:"RETECHCI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETECHCI_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"RETECHCI_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"RETECHCI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETECHCI_DB_DSN"`
	Driver string `envconfig:"RETECHCI_DB_DRIVER" default:"sqlite"`

	LegacyHost     string `envconfig:"RETECHCI_DB_HOST"`
	LegacyPort     int    `envconfig:"RETECHCI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETECHCI_DB_USER"`
	LegacyPassword string `envconfig:"RETECHCI_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETECHCI_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETECHCI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETECHCI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETECHCI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETECHCI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETECHCI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"RETECHCI_REDIS_URL"`
	Address      string        `envconfig:"RETECHCI_REDIS_ADDR"`
	Password     string        `envconfig:"RETECHCI_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETECHCI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETECHCI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETECHCI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETECHCI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETECHCI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETECHCI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RETECHCI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RETECHCI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RETECHCI_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"RETECHCI_SESSION_TTL_MINUTES" default:"10080"`
}

// SessionTTL returns how long a login session survives in Redis.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETECHCI_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETECHCI_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETECHCI_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETECHCI_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETECHCI_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow         time.Duration `envconfig:"RETECHCI_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"RETECHCI_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"RETECHCI_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	ApplicationWindow   time.Duration `envconfig:"RETECHCI_RATE_LIMIT_APPLICATION_WINDOW" default:"1h"`
	ApplicationEmailMax int           `envconfig:"RETECHCI_RATE_LIMIT_APPLICATION_EMAIL_LIMIT" default:"3"`
	ApplicationIPMax    int           `envconfig:"RETECHCI_RATE_LIMIT_APPLICATION_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETECHCI_AUTO_MIGRATE" default:"false"`
}

// MembershipConfig holds the association's dues and profile defaults.
type MembershipConfig struct {
	AnnualFee     int64  `envconfig:"RETECHCI_MEMBERSHIP_ANNUAL_FEE" default:"25000"`
	Currency      string `envconfig:"RETECHCI_MEMBERSHIP_CURRENCY" default:"XOF"`
	AvatarBaseURL string `envconfig:"RETECHCI_MEMBERSHIP_AVATAR_BASE_URL" default:"https://picsum.photos/seed"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"RETECHCI_CRON_INTERVAL" default:"24h"`
	MessageRetentionDays int           `envconfig:"RETECHCI_CRON_MESSAGE_RETENTION_DAYS" default:"180"`
	JobTimeout           time.Duration `envconfig:"RETECHCI_CRON_JOB_TIMEOUT" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
