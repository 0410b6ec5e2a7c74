// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Port            string        `yaml:"port"`
	DatabaseURL     string        `yaml:"database_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	Timezone        string        `yaml:"timezone"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Storage   StorageConfig   `yaml:"storage"`
	Inference InferenceConfig `yaml:"inference"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type StorageConfig struct {
	Driver            string `yaml:"driver"` // minio, s3
	MaxImageDimension int    `yaml:"max_image_dimension"`

	MinIOEndpoint      string `yaml:"minio_endpoint"`
	MinIOAccessKey     string `yaml:"minio_access_key"`
	MinIOSecretKey     string `yaml:"minio_secret_key"`
	MinIOBucket        string `yaml:"minio_bucket"`
	MinIOUseSSL        bool   `yaml:"minio_use_ssl"`
	MinIOPublicBaseURL string `yaml:"minio_public_base_url"`

	S3Region        string `yaml:"s3_region"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Endpoint      string `yaml:"s3_endpoint"`
	S3AccessKey     string `yaml:"s3_access_key"`
	S3SecretKey     string `yaml:"s3_secret_key"`
	S3PublicBaseURL string `yaml:"s3_public_base_url"`
}

type InferenceConfig struct {
	Provider     string        `yaml:"provider"` // openai, gemini, rekognition
	APIURL       string        `yaml:"api_url"`
	APIKey       string        `yaml:"api_key"`
	Model        string        `yaml:"model"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	AWSRegion    string        `yaml:"aws_region"`
	Timeout      time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	Mode         string   `yaml:"mode"` // detached, kafka
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroupID string   `yaml:"kafka_group_id"`
}

func defaults() Config {
	return Config{
		Port:            "8080",
		ShutdownTimeout: 30 * time.Second,
		Storage: StorageConfig{
			Driver:        "minio",
			MinIOEndpoint: "localhost:9000",
			MinIOBucket:   "food-photos",
			S3Region:      "auto",
		},
		Inference: InferenceConfig{
			Provider:    "openai",
			APIURL:      "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			GeminiModel: "gemini-2.0-flash",
			Timeout:     120 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Mode:         "detached",
			KafkaTopic:   "food-analysis",
			KafkaGroupID: "food-analysis-workers",
		},
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.Timezone, "TIMEZONE")
	setList(&cfg.CORSOrigins, "CORS_ORIGINS")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.MinIOEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.MinIOAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.MinIOSecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.MinIOBucket, "MINIO_BUCKET")
	setString(&cfg.Storage.MinIOPublicBaseURL, "MINIO_PUBLIC_BASE_URL")
	setString(&cfg.Storage.S3Region, "S3_REGION")
	setString(&cfg.Storage.S3Bucket, "S3_BUCKET")
	setString(&cfg.Storage.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.S3AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.Storage.S3SecretKey, "S3_SECRET_KEY")
	setString(&cfg.Storage.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")

	setString(&cfg.Inference.Provider, "INFERENCE_PROVIDER")
	setString(&cfg.Inference.APIURL, "INFERENCE_API_URL")
	setString(&cfg.Inference.APIKey, "INFERENCE_API_KEY")
	setString(&cfg.Inference.Model, "INFERENCE_MODEL")
	setString(&cfg.Inference.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.Inference.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.Inference.AWSRegion, "AWS_REGION")

	setString(&cfg.Scheduler.Mode, "SCHEDULER")
	setList(&cfg.Scheduler.KafkaBrokers, "KAFKA_BROKERS")
	setString(&cfg.Scheduler.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.Scheduler.KafkaGroupID, "KAFKA_GROUP_ID")

	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.Storage.MinIOUseSSL = v == "true"
	}
	if v := os.Getenv("IMAGE_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMAGE_MAX_DIMENSION: %w", err)
		}
		cfg.Storage.MaxImageDimension = n
	}
	if err := setDuration(&cfg.Inference.Timeout, "INFERENCE_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
}

// Validate fails fast on settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}

	switch c.Storage.Driver {
	case "minio":
	case "s3":
		if c.Storage.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is not set"))
		}
		if c.Storage.S3PublicBaseURL == "" {
			errs = append(errs, errors.New("S3_PUBLIC_BASE_URL is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Inference.Provider {
	case "openai":
		if c.Inference.APIKey == "" {
			errs = append(errs, errors.New("INFERENCE_API_KEY is not set"))
		}
	case "gemini":
		if c.Inference.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	case "rekognition":
		if c.Inference.AWSRegion == "" {
			errs = append(errs, errors.New("AWS_REGION is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown INFERENCE_PROVIDER %q", c.Inference.Provider))
	}

	switch c.Scheduler.Mode {
	case "detached":
	case "kafka":
		if len(c.Scheduler.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SCHEDULER %q", c.Scheduler.Mode))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location is the zone used for the server's "today". Empty means the
// process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	return loc, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
