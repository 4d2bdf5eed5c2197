package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Registry RegistryConfig `yaml:"registry"`
	Vision   VisionConfig   `yaml:"vision"`
	Approval ApprovalConfig `yaml:"approval"`
	Notify   NotifyConfig   `yaml:"notify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type NATSConfig struct {
	URL                  string `yaml:"url"`
	ImageSubject         string `yaml:"image_subject"`
	CameraCommandSubject string `yaml:"camera_command_subject"`
	LockerCommandSubject string `yaml:"locker_command_subject"`
	WorkerCount          int    `yaml:"worker_count"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RegistryConfig points at the directory of labeled images of
// authorized people, one face per file, named <name>.jpg.
type RegistryConfig struct {
	Dir string `yaml:"dir"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	Tolerance          float64 `yaml:"tolerance"`
}

type ApprovalConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// UnmarshalYAML accepts durations in the "5m" / "30s" form.
func (a *ApprovalConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timeout       string `yaml:"timeout"`
		SweepInterval string `yaml:"sweep_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parse approval timeout: %w", err)
		}
		a.Timeout = d
	}
	if raw.SweepInterval != "" {
		d, err := time.ParseDuration(raw.SweepInterval)
		if err != nil {
			return fmt.Errorf("parse approval sweep_interval: %w", err)
		}
		a.SweepInterval = d
	}
	return nil
}

type NotifyConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	Token      string `yaml:"token"`
	From       string `yaml:"from"`
	Recipient  string `yaml:"recipient"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.NATS.ImageSubject == "" {
		cfg.NATS.ImageSubject = "camera.image"
	}
	if cfg.NATS.CameraCommandSubject == "" {
		cfg.NATS.CameraCommandSubject = "camera.command"
	}
	if cfg.NATS.LockerCommandSubject == "" {
		cfg.NATS.LockerCommandSubject = "locker.command"
	}
	if cfg.NATS.WorkerCount == 0 {
		cfg.NATS.WorkerCount = 4
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Registry.Dir == "" {
		cfg.Registry.Dir = "known_faces"
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Vision.Tolerance == 0 {
		cfg.Vision.Tolerance = 0.5
	}
	if cfg.Approval.Timeout == 0 {
		cfg.Approval.Timeout = 5 * time.Minute
	}
	if cfg.Approval.SweepInterval == 0 {
		cfg.Approval.SweepInterval = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SE_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("SE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("SE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("SE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("SE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("SE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SE_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("SE_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("SE_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("SE_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("SE_REGISTRY_DIR"); v != "" {
		cfg.Registry.Dir = v
	}
	if v := os.Getenv("SE_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("SE_TOLERANCE"); v != "" {
		if tol, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Vision.Tolerance = tol
		}
	}
	if v := os.Getenv("SE_NOTIFY_GATEWAY_URL"); v != "" {
		cfg.Notify.GatewayURL = v
	}
	if v := os.Getenv("SE_NOTIFY_TOKEN"); v != "" {
		cfg.Notify.Token = v
	}
	if v := os.Getenv("SE_NOTIFY_FROM"); v != "" {
		cfg.Notify.From = v
	}
	if v := os.Getenv("SE_NOTIFY_RECIPIENT"); v != "" {
		cfg.Notify.Recipient = v
	}
}
