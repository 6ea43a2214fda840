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
	Store         StoreConfig
	DB            DBConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cache         CacheConfig
	Realtime      RealtimeConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	Winners       WinnersConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() {
		if err := cfg.DB.ensureDSN(cfg.Store.Driver); err != nil {
			return nil, err
		}
	}
	if cfg.Store.Driver == StoreDriverMongo && strings.TrimSpace(cfg.Mongo.URI) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvMongoURI, EnvStoreDriver, StoreDriverMongo)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOTTODESK_APP_ENV" required:"true"`
	Port         string `envconfig:"LOTTODESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOTTODESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOTTODESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"LOTTODESK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"LOTTODESK_SERVICE_KIND" default:"api"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string `envconfig:"LOTTODESK_STORE_DRIVER" default:"postgres"`
}

// UsesSQL reports whether the configured driver is served by gorm.
func (s StoreConfig) UsesSQL() bool {
	return s.Driver == StoreDriverPostgres || s.Driver == StoreDriverSQLite
}

func (s *StoreConfig) validate() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMongo:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreDriver, s.Driver)
	}
}

type DBConfig struct {
	DSN string `envconfig:"LOTTODESK_DB_DSN"`

	LegacyHost     string `envconfig:"LOTTODESK_DB_HOST"`
	LegacyPort     int    `envconfig:"LOTTODESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOTTODESK_DB_USER"`
	LegacyPassword string `envconfig:"LOTTODESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOTTODESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOTTODESK_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"LOTTODESK_SQLITE_PATH" default:"lottodesk.db"`

	MaxOpenConns    int           `envconfig:"LOTTODESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOTTODESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOTTODESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOTTODESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type MongoConfig struct {
	URI            string        `envconfig:"LOTTODESK_MONGO_URI"`
	Database       string        `envconfig:"LOTTODESK_MONGO_DATABASE" default:"lottodesk"`
	ConnectTimeout time.Duration `envconfig:"LOTTODESK_MONGO_CONNECT_TIMEOUT" default:"5s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOTTODESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOTTODESK_REDIS_ADDR"`
	Password     string        `envconfig:"LOTTODESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOTTODESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOTTODESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOTTODESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOTTODESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOTTODESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOTTODESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOTTODESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOTTODESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOTTODESK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOTTODESK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LOTTODESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LOTTODESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LOTTODESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LOTTODESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LOTTODESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LOTTODESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LOTTODESK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LOTTODESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"LOTTODESK_AUTO_MIGRATE" default:"false"`
	PublishEvents bool `envconfig:"LOTTODESK_PUBLISH_EVENTS" default:"false"`
}

// CacheConfig drives the query cache policies. Dashboard stats are aggregated
// over whole collections so they get their own window.
type CacheConfig struct {
	FreshFor          time.Duration `envconfig:"LOTTODESK_CACHE_FRESH_FOR" default:"30s"`
	KeepFor           time.Duration `envconfig:"LOTTODESK_CACHE_KEEP_FOR" default:"5m"`
	DashboardFreshFor time.Duration `envconfig:"LOTTODESK_CACHE_DASHBOARD_FRESH_FOR" default:"2m"`
	DashboardKeepFor  time.Duration `envconfig:"LOTTODESK_CACHE_DASHBOARD_KEEP_FOR" default:"10m"`
	SweepInterval     time.Duration `envconfig:"LOTTODESK_CACHE_SWEEP_INTERVAL" default:"1m"`
}

type RealtimeConfig struct {
	Channel       string        `envconfig:"LOTTODESK_REALTIME_CHANNEL" default:"notifications.changed"`
	Heartbeat     time.Duration `envconfig:"LOTTODESK_REALTIME_HEARTBEAT" default:"25s"`
	RelayMinRetry time.Duration `envconfig:"LOTTODESK_REALTIME_RELAY_MIN_RETRY" default:"500ms"`
	RelayMaxRetry time.Duration `envconfig:"LOTTODESK_REALTIME_RELAY_MAX_RETRY" default:"30s"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LOTTODESK_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOTTODESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LOTTODESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOTTODESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"LOTTODESK_PUBSUB_DOMAIN_TOPIC" default:"lottodesk-domain-events"`
	NotificationSubscription string `envconfig:"LOTTODESK_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"lottodesk-notifications"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"LOTTODESK_NOTIFICATIONS_RETENTION_DAYS" default:"30"`
}

// Retention returns the read-notification retention window.
func (n NotificationsConfig) Retention() time.Duration {
	if n.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(n.RetentionDays) * 24 * time.Hour
}

type WinnersConfig struct {
	ClaimWindow time.Duration `envconfig:"LOTTODESK_WINNERS_CLAIM_WINDOW" default:"2160h"`
}

// CronConfig paces the cron worker. The lock outlives one cycle only when a
// worker dies holding it.
type CronConfig struct {
	Interval time.Duration `envconfig:"LOTTODESK_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"LOTTODESK_CRON_LOCK_TTL" default:"55m"`
}

func (db *DBConfig) ensureDSN(driver string) error {
	if driver == StoreDriverSQLite {
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
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
