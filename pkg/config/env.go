package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "RETECHCI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	DefaultSQLiteDSN = "file:retechci.db?_foreign_keys=on"
)

const (
	EnvAppEnv         = "RETECHCI_APP_ENV"
	EnvPort           = "RETECHCI_APP_PORT"
	EnvDBDSN          = "RETECHCI_DB_DSN"
	EnvDBDriver       = "RETECHCI_DB_DRIVER"
	EnvDBHost         = "RETECHCI_DB_HOST"
	EnvDBUser         = "RETECHCI_DB_USER"
	EnvDBName         = "RETECHCI_DB_NAME"
	EnvRedisURL       = "RETECHCI_REDIS_URL"
	EnvJWTSecret      = "RETECHCI_JWT_SECRET"
	EnvJWTIssuer      = "RETECHCI_JWT_ISSUER"
	EnvJWTExpMins     = "RETECHCI_JWT_EXPIRATION_MINUTES"
	EnvMembershipFee  = "RETECHCI_MEMBERSHIP_ANNUAL_FEE"
	EnvSessionTTLMins = "RETECHCI_SESSION_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
