package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Bkash         BkashConfig
	S3            S3Config
	Media         MediaConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SPACESTAR_APP_ENV" required:"true"`
	Port         string `envconfig:"SPACESTAR_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"SPACESTAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPACESTAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type MongoConfig struct {
	URI            string        `envconfig:"SPACESTAR_MONGO_URI" required:"true"`
	Database       string        `envconfig:"SPACESTAR_MONGO_DATABASE" default:"spacestar"`
	ConnectTimeout time.Duration `envconfig:"SPACESTAR_MONGO_CONNECT_TIMEOUT" default:"10s"`
	QueryTimeout   time.Duration `envconfig:"SPACESTAR_MONGO_QUERY_TIMEOUT" default:"15s"`
	MaxPoolSize    uint64        `envconfig:"SPACESTAR_MONGO_MAX_POOL_SIZE" default:"20"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPACESTAR_REDIS_URL"`
	Address      string        `envconfig:"SPACESTAR_REDIS_ADDR"`
	Password     string        `envconfig:"SPACESTAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPACESTAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPACESTAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPACESTAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPACESTAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPACESTAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPACESTAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SPACESTAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SPACESTAR_JWT_ISSUER" default:"spacestar"`
	ExpirationMinutes int    `envconfig:"SPACESTAR_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the admin session lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SPACESTAR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SPACESTAR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SPACESTAR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SPACESTAR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SPACESTAR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SPACESTAR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SPACESTAR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SPACESTAR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type BkashConfig struct {
	AppKey      string        `envconfig:"SPACESTAR_BKASH_APP_KEY" required:"true"`
	AppSecret   string        `envconfig:"SPACESTAR_BKASH_APP_SECRET" required:"true"`
	Username    string        `envconfig:"SPACESTAR_BKASH_USERNAME" required:"true"`
	Password    string        `envconfig:"SPACESTAR_BKASH_PASSWORD" required:"true"`
	BaseURL     string        `envconfig:"SPACESTAR_BKASH_BASE_URL" default:"https://tokenized.sandbox.bka.sh/v1.2.0-beta"`
	CallbackURL string        `envconfig:"SPACESTAR_BKASH_CALLBACK_URL" required:"true"`
	Timeout     time.Duration `envconfig:"SPACESTAR_BKASH_TIMEOUT" default:"30s"`
	TokenTTL    time.Duration `envconfig:"SPACESTAR_BKASH_TOKEN_TTL" default:"45m"`
}

type S3Config struct {
	Region          string        `envconfig:"SPACESTAR_AWS_REGION" default:"ap-southeast-1"`
	Bucket          string        `envconfig:"SPACESTAR_AWS_BUCKET_NAME" required:"true"`
	AccessKeyID     string        `envconfig:"SPACESTAR_AWS_ACCESS_KEY" required:"true"`
	SecretAccessKey string        `envconfig:"SPACESTAR_AWS_SECRET_ACCESS_KEY" required:"true"`
	Endpoint        string        `envconfig:"SPACESTAR_AWS_ENDPOINT"`
	URLExpiry       time.Duration `envconfig:"SPACESTAR_AWS_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"SPACESTAR_MAX_UPLOAD_MB" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SPACESTAR_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001,https://space-star-rho.vercel.app,https://spacestar-frontend.vercel.app"`
}
