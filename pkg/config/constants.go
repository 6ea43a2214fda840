package config

const (
	EnvPrefix = "LOTTODESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"

	EnvAppEnv                 = "LOTTODESK_APP_ENV"
	EnvPort                   = "LOTTODESK_APP_PORT"
	EnvStoreDriver            = "LOTTODESK_STORE_DRIVER"
	EnvDBDSN                  = "LOTTODESK_DB_DSN"
	EnvDBHost                 = "LOTTODESK_DB_HOST"
	EnvDBUser                 = "LOTTODESK_DB_USER"
	EnvDBName                 = "LOTTODESK_DB_NAME"
	EnvMongoURI               = "LOTTODESK_MONGO_URI"
	EnvRedisURL               = "LOTTODESK_REDIS_URL"
	EnvJWTSecret              = "LOTTODESK_JWT_SECRET"
	EnvJWTIssuer              = "LOTTODESK_JWT_ISSUER"
	EnvJWTExpMins             = "LOTTODESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LOTTODESK_REFRESH_TOKEN_TTL_MINUTES"
	EnvCacheFreshFor          = "LOTTODESK_CACHE_FRESH_FOR"
	EnvCacheKeepFor           = "LOTTODESK_CACHE_KEEP_FOR"
	EnvGCPProjectID           = "LOTTODESK_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "LOTTODESK_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationSub  = "LOTTODESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvNotificationsRetention = "LOTTODESK_NOTIFICATIONS_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
