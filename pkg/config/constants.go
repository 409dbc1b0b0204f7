package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "roas"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ROAS_DB_DSN"
	EnvDBHost = "ROAS_DB_HOST"
	EnvDBUser = "ROAS_DB_USER"
	EnvDBName = "ROAS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
