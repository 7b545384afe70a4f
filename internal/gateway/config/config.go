package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DefaultRegion string
	Session       SessionConfig
	Results       ResultsConfig
	LLM           LLMConfig
}

type SessionConfig struct {
	// ValidateTokens gates the upstream permission check on new tokens.
	// Off accepts any non-empty token; meant for local development only.
	ValidateTokens bool
}

type ResultsConfig struct {
	Dir    string
	Mirror MirrorConfig
}

type MirrorConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type LLMConfig struct {
	Provider string
	APIKey   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:          *port,
		Env:           env,
		DefaultRegion: firstNonEmpty(strings.TrimSpace(os.Getenv("PLATFORM_REGION")), "mypurecloud.de"),
		Session: SessionConfig{
			ValidateTokens: boolEnv("SESSION_VALIDATE_TOKENS", true),
		},
		Results: ResultsConfig{
			Dir:    firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_DIR")), "data/test-results"),
			Mirror: loadMirrorConfig(),
		},
		LLM: LLMConfig{
			Provider: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "groq"),
			APIKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("GROQ_API_KEY")), strings.TrimSpace(os.Getenv("LLM_API_KEY"))),
		},
	}, nil
}

func loadMirrorConfig() MirrorConfig {
	endpoint := strings.TrimSpace(os.Getenv("RESULTS_S3_ENDPOINT"))
	return MirrorConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("RESULTS_S3_BUCKET")), "intentguard-results"),
		UseSSL:    boolEnv("RESULTS_S3_USE_SSL", true),
	}
}

func boolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
