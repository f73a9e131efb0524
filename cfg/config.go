package cfg

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
}

// ProviderConfig holds the credentials for a single social network
// integration. Empty credentials mean the provider is disabled; that is
// not a configuration error.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type SocialConfig struct {
	GitHub   ProviderConfig
	Google   ProviderConfig
	LinkedIn ProviderConfig
	Twitter  ProviderConfig
}

type Config struct {
	AppEnv        string
	BaseURL       string
	Redis         RedisConfig
	Postgres      PostgresConfig
	Observability ObservabilityConfig
	Social        SocialConfig
}

func Load() (*Config, error) {
	var errs []error

	err := godotenv.Load()
	if err != nil {
		return nil, errors.New("failed load cfg: " + err.Error())
	}

	appEnv := mustEnv("APP_ENV", &errs)
	baseURL := mustEnv("BASE_URL", &errs)

	redisHost := mustEnv("REDIS_HOST", &errs)
	redisPort := mustEnv("REDIS_PORT", &errs)
	redisPassword := os.Getenv("REDIS_PASSWORD")

	pgHost := mustEnv("POSTGRES_HOST", &errs)
	pgPort := mustEnv("POSTGRES_PORT", &errs)
	pgUser := mustEnv("POSTGRES_USER", &errs)
	pgPassword := mustEnv("POSTGRES_PASSWORD", &errs)
	pgDBName := mustEnv("POSTGRES_DB", &errs)
	pgSSLMode := mustEnv("POSTGRES_SSLMODE", &errs)

	serviceName := mustEnv("OTEL_SERVICE_NAME", &errs)
	otlpEndpoint := mustEnv("OTEL_OTLP_ENDPOINT", &errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		AppEnv:  appEnv,
		BaseURL: baseURL,
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     redisPort,
			Password: redisPassword,
		},
		Postgres: PostgresConfig{
			Host:     pgHost,
			Port:     pgPort,
			User:     pgUser,
			Password: pgPassword,
			DBName:   pgDBName,
			SSLMode:  pgSSLMode,
		},
		Observability: ObservabilityConfig{
			ServiceName:  serviceName,
			Environment:  appEnv,
			OTLPEndpoint: otlpEndpoint,
		},
		Social: SocialConfig{
			GitHub:   providerEnv("GITHUB", baseURL, "github"),
			Google:   providerEnv("GOOGLE", baseURL, "google"),
			LinkedIn: providerEnv("LINKEDIN", baseURL, "linkedin"),
			Twitter:  providerEnv("TWITTER", baseURL, "twitter"),
		},
	}, nil
}

func mustEnv(key string, errs *[]error) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errs = append(*errs, errors.New("missing env: "+key))
	}
	return value
}

// providerEnv reads the credentials for one provider. Missing values are
// tolerated: the provider simply stays disabled.
func providerEnv(prefix, baseURL, slug string) ProviderConfig {
	redirect := os.Getenv("SOCIAL_" + prefix + "_REDIRECT_URL")
	if redirect == "" {
		redirect = baseURL + "/auth/callback/" + slug
	}

	return ProviderConfig{
		ClientID:     os.Getenv("SOCIAL_" + prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv("SOCIAL_" + prefix + "_CLIENT_SECRET"),
		RedirectURL:  redirect,
	}
}
