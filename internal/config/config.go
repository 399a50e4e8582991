package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bazarlab/adextract/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Model    ModelConfig    `yaml:"model" mapstructure:"model"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Resolve  ResolveConfig  `yaml:"resolve" mapstructure:"resolve"`
	Feedback FeedbackConfig `yaml:"feedback" mapstructure:"feedback"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ModelConfig configures the external learned-model service.
type ModelConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ExtractConfig bounds the pattern extractor's plausibility windows.
type ExtractConfig struct {
	YearMin  int `yaml:"year_min" mapstructure:"year_min"`
	YearMax  int `yaml:"year_max" mapstructure:"year_max"`
	PowerMin int `yaml:"power_min" mapstructure:"power_min"`
	PowerMax int `yaml:"power_max" mapstructure:"power_max"`
}

// ResolveConfig selects the preferred source per field for major
// disagreements.
type ResolveConfig struct {
	PreferMLMileage bool `yaml:"prefer_ml_mileage" mapstructure:"prefer_ml_mileage"`
	PreferMLYear    bool `yaml:"prefer_ml_year" mapstructure:"prefer_ml_year"`
	PreferMLPower   bool `yaml:"prefer_ml_power" mapstructure:"prefer_ml_power"`
	PreferMLFuel    bool `yaml:"prefer_ml_fuel" mapstructure:"prefer_ml_fuel"`
}

// PreferML returns the per-field preference map.
func (r ResolveConfig) PreferML() map[model.Field]bool {
	return map[model.Field]bool{
		model.FieldMileage: r.PreferMLMileage,
		model.FieldYear:    r.PreferMLYear,
		model.FieldPower:   r.PreferMLPower,
		model.FieldFuel:    r.PreferMLFuel,
	}
}

// FeedbackConfig configures the learning queues.
type FeedbackConfig struct {
	TrainingQueuePath   string `yaml:"training_queue_path" mapstructure:"training_queue_path"`
	ReviewQueuePath     string `yaml:"review_queue_path" mapstructure:"review_queue_path"`
	ManualReviewLogPath string `yaml:"manual_review_log_path" mapstructure:"manual_review_log_path"`
	StatsPath           string `yaml:"stats_path" mapstructure:"stats_path"`
	ReviewTruncateLen   int    `yaml:"review_truncate_len" mapstructure:"review_truncate_len"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentListings int     `yaml:"max_concurrent_listings" mapstructure:"max_concurrent_listings"`
	ModelRatePerSec       float64 `yaml:"model_rate_per_sec" mapstructure:"model_rate_per_sec"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "adextract.db")
	v.SetDefault("model.enabled", true)
	v.SetDefault("model.base_url", "http://localhost:8008")
	v.SetDefault("extract.year_min", 1990)
	v.SetDefault("extract.year_max", 0) // 0 means current year + 1
	v.SetDefault("extract.power_min", 30)
	v.SetDefault("extract.power_max", 500)
	v.SetDefault("resolve.prefer_ml_mileage", true)
	v.SetDefault("resolve.prefer_ml_year", false)
	v.SetDefault("resolve.prefer_ml_power", false)
	v.SetDefault("resolve.prefer_ml_fuel", true)
	v.SetDefault("feedback.training_queue_path", "auto_training_queue.json")
	v.SetDefault("feedback.review_queue_path", "review_queue.json")
	v.SetDefault("feedback.manual_review_log_path", "manual_review_log.json")
	v.SetDefault("feedback.stats_path", "extraction_stats.json")
	v.SetDefault("feedback.review_truncate_len", 500)
	v.SetDefault("batch.max_concurrent_listings", 5)
	v.SetDefault("batch.model_rate_per_sec", 10.0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
