package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Minio    MinioConfig    `yaml:"minio"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Router   RouterConfig   `yaml:"router"`
	Risk     RiskConfig     `yaml:"risk"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Users    []User         `yaml:"users"`
}

type ServerConfig struct {
	ProcessorPort int `yaml:"processor_port"`
	AdvisorPort   int `yaml:"advisor_port"`
}

type StoreConfig struct {
	// Path to the sqlite database file. Empty selects the in-memory store.
	Path         string `yaml:"path"`
	MaxDocuments int    `yaml:"max_documents"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type OracleConfig struct {
	APIURL         string `yaml:"api_url"`
	APIToken       string `yaml:"api_token"`
	FastModel      string `yaml:"fast_model"`
	DeepModel      string `yaml:"deep_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
	RetrievalK     int    `yaml:"retrieval_k" validate:"gte=0"`
}

// RouterConfig holds the complexity router weights and tier threshold.
type RouterConfig struct {
	DensityWeight  float64 `yaml:"density_weight" validate:"gte=0"`
	LengthWeight   float64 `yaml:"length_weight" validate:"gte=0"`
	SentenceWeight float64 `yaml:"sentence_weight" validate:"gte=0"`
	Threshold      float64 `yaml:"threshold" validate:"gte=0,lte=1"`
}

// RiskConfig holds the numeric weight per risk level, the compliance-status
// threshold for the report, and the minimum level that earns a suggestion.
type RiskConfig struct {
	LowWeight           float64 `yaml:"low_weight" validate:"gte=0,lte=10"`
	MediumWeight        float64 `yaml:"medium_weight" validate:"gte=0,lte=10"`
	HighWeight          float64 `yaml:"high_weight" validate:"gte=0,lte=10"`
	ComplianceThreshold float64 `yaml:"compliance_threshold" validate:"gte=0,lte=10"`
	SuggestionThreshold string  `yaml:"suggestion_threshold" validate:"omitempty,oneof=low medium high"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
}

type PipelineConfig struct {
	Workers        int `yaml:"workers" validate:"gte=0"`
	RetryBudget    int `yaml:"retry_budget" validate:"gte=0"`
	BackoffSeconds int `yaml:"backoff_seconds" validate:"gte=0"`
}

type BridgeConfig struct {
	Mode                string `yaml:"mode" validate:"omitempty,oneof=push pull"`
	AdvisorURL          string `yaml:"advisor_url"`
	ProcessorURL        string `yaml:"processor_url"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds" validate:"gte=0"`
	BatchSize           int    `yaml:"batch_size" validate:"gte=0"`
	MaxAttempts         int    `yaml:"max_attempts" validate:"gte=0"`
	BackoffSeconds      int    `yaml:"backoff_seconds" validate:"gte=0"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

func Load(path string) (*Config, error) {
	// Secrets may live in a .env file next to the service; missing is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ProcessorPort == 0 {
		c.Server.ProcessorPort = 8001
	}
	if c.Server.AdvisorPort == 0 {
		c.Server.AdvisorPort = 8002
	}
	if c.Minio.ExpireDays == 0 {
		c.Minio.ExpireDays = 7
	}
	if c.Oracle.TimeoutSeconds == 0 {
		c.Oracle.TimeoutSeconds = 60
	}
	if c.Oracle.RetrievalK == 0 {
		c.Oracle.RetrievalK = 2
	}
	if c.Oracle.FastModel == "" {
		c.Oracle.FastModel = "flash-lite"
	}
	if c.Oracle.DeepModel == "" {
		c.Oracle.DeepModel = "flash"
	}
	if c.Router.DensityWeight == 0 && c.Router.LengthWeight == 0 && c.Router.SentenceWeight == 0 {
		c.Router.DensityWeight = 0.5
		c.Router.LengthWeight = 0.3
		c.Router.SentenceWeight = 0.2
	}
	if c.Router.Threshold == 0 {
		c.Router.Threshold = 0.7
	}
	if c.Risk.LowWeight == 0 && c.Risk.MediumWeight == 0 && c.Risk.HighWeight == 0 {
		c.Risk.LowWeight = 2
		c.Risk.MediumWeight = 5
		c.Risk.HighWeight = 9
	}
	if c.Risk.ComplianceThreshold == 0 {
		c.Risk.ComplianceThreshold = 4.0
	}
	if c.Risk.SuggestionThreshold == "" {
		c.Risk.SuggestionThreshold = "high"
	}
	if c.Risk.SimilarityThreshold == 0 {
		c.Risk.SimilarityThreshold = 0.35
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 4
	}
	if c.Pipeline.RetryBudget == 0 {
		c.Pipeline.RetryBudget = 3
	}
	if c.Pipeline.BackoffSeconds == 0 {
		c.Pipeline.BackoffSeconds = 2
	}
	if c.Bridge.Mode == "" {
		c.Bridge.Mode = "push"
	}
	if c.Bridge.PollIntervalSeconds == 0 {
		c.Bridge.PollIntervalSeconds = 15
	}
	if c.Bridge.BatchSize == 0 {
		c.Bridge.BatchSize = 10
	}
	if c.Bridge.MaxAttempts == 0 {
		c.Bridge.MaxAttempts = 3
	}
	if c.Bridge.BackoffSeconds == 0 {
		c.Bridge.BackoffSeconds = 5
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Store.MaxDocuments < 0 {
		c.Store.MaxDocuments = 0
	}
}

// applyEnvOverrides lets deployment secrets trump the yaml file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ORACLE_API_TOKEN"); v != "" {
		c.Oracle.APIToken = v
	}
	if v := os.Getenv("ORACLE_API_URL"); v != "" {
		c.Oracle.APIURL = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		c.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

// OracleTimeout returns the oracle call timeout as a duration.
func (c *OracleConfig) OracleTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FindUser finds a user by username.
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
