package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Facebook     FacebookConfig
	Jobs         JobsConfig
	Reporting    ReportingConfig
	Snapshot     SnapshotConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Facebook.AccountList(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ROAS_APP_ENV" required:"true"`
	Port         string `envconfig:"ROAS_APP_PORT" default:"2000"`
	LogLevel     string `envconfig:"ROAS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROAS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ROAS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ROAS_DB_DSN"`
	Driver string `envconfig:"ROAS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROAS_DB_HOST"`
	LegacyPort     int    `envconfig:"ROAS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROAS_DB_USER"`
	LegacyPassword string `envconfig:"ROAS_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROAS_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROAS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROAS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROAS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROAS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROAS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROAS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROAS_REDIS_ADDR"`
	Password     string        `envconfig:"ROAS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROAS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROAS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROAS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROAS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROAS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROAS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ShopifyConfig struct {
	ShopDomain  string `envconfig:"ROAS_SHOPIFY_SHOP_DOMAIN" required:"true"`
	AccessToken string `envconfig:"ROAS_SHOPIFY_ACCESS_TOKEN" required:"true"`
	APIVersion  string `envconfig:"ROAS_SHOPIFY_API_VERSION" default:"2023-10"`
	PageSize    int    `envconfig:"ROAS_SHOPIFY_PAGE_SIZE" default:"250"`
}

type FacebookConfig struct {
	AccessToken string `envconfig:"ROAS_FACEBOOK_TOKEN" required:"true"`
	APIVersion  string `envconfig:"ROAS_FACEBOOK_API_VERSION" default:"v18.0"`
	PageSize    int    `envconfig:"ROAS_FACEBOOK_PAGE_SIZE" default:"40"`

	// Accounts holds the fixed ad-account list as "id:name" pairs,
	// comma separated.
	Accounts string `envconfig:"ROAS_FACEBOOK_AD_ACCOUNTS" required:"true"`
}

// AdAccount is one entry from the configured ad-account list.
type AdAccount struct {
	ID   string
	Name string
}

// AccountList parses the configured "id:name,id:name" account mapping.
func (f FacebookConfig) AccountList() ([]AdAccount, error) {
	raw := strings.TrimSpace(f.Accounts)
	if raw == "" {
		return nil, fmt.Errorf("%s is required", "ROAS_FACEBOOK_AD_ACCOUNTS")
	}
	var accounts []AdAccount
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, name, found := strings.Cut(pair, ":")
		if !found || strings.TrimSpace(id) == "" || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid ad account entry %q (expected id:name)", pair)
		}
		accounts = append(accounts, AdAccount{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no ad accounts configured")
	}
	return accounts, nil
}

type JobsConfig struct {
	OrdersInterval   time.Duration `envconfig:"ROAS_JOB_ORDERS_INTERVAL" default:"60s"`
	InsightsInterval time.Duration `envconfig:"ROAS_JOB_INSIGHTS_INTERVAL" default:"60s"`
	TodayInterval    time.Duration `envconfig:"ROAS_JOB_TODAY_INTERVAL" default:"60s"`
	CatalogInterval  time.Duration `envconfig:"ROAS_JOB_CATALOG_INTERVAL" default:"12h"`
	SnapshotInterval time.Duration `envconfig:"ROAS_JOB_SNAPSHOT_INTERVAL" default:"24h"`
	CatalogBatchSize int           `envconfig:"ROAS_JOB_CATALOG_BATCH_SIZE" default:"50"`
	MetricsPort      string        `envconfig:"ROAS_JOB_METRICS_PORT" default:"9091"`
}

type ReportingConfig struct {
	// MarginFactor is the assumed take-rate deduction applied to gross
	// revenue before profit calculation. Business constant.
	MarginFactor float64 `envconfig:"ROAS_MARGIN_FACTOR" default:"0.86"`
	Timezone     string  `envconfig:"ROAS_REPORTING_TIMEZONE" default:"America/Los_Angeles"`
}

type SnapshotConfig struct {
	// FloorDate is the oldest day the archiver walks back to.
	FloorDate string `envconfig:"ROAS_SNAPSHOT_FLOOR_DATE" default:"2023-12-01"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROAS_AUTO_MIGRATE" default:"false"`
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
