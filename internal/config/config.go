package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Buffer   BufferConfig   `yaml:"buffer" mapstructure:"buffer"`
	Progress ProgressConfig `yaml:"progress" mapstructure:"progress"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CatalogConfig locates the shapefile dataset groups.
type CatalogConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`
	UploadsDir   string `yaml:"uploads_dir" mapstructure:"uploads_dir"`
	UploadsLabel string `yaml:"uploads_label" mapstructure:"uploads_label"`
	DrawSuffix   string `yaml:"draw_suffix" mapstructure:"draw_suffix"`
}

// BufferConfig configures buffer distances and geometry.
type BufferConfig struct {
	DefaultMeters    float64   `yaml:"default_meters" mapstructure:"default_meters"`
	PresetsMeters    []float64 `yaml:"presets_meters" mapstructure:"presets_meters"`
	CustomMinKm      float64   `yaml:"custom_min_km" mapstructure:"custom_min_km"`
	CustomMaxKm      float64   `yaml:"custom_max_km" mapstructure:"custom_max_km"`
	QuadrantSegments int       `yaml:"quadrant_segments" mapstructure:"quadrant_segments"`
}

// ProgressConfig configures the progress indicator.
type ProgressConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Port           int           `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	MaxSessions    int           `yaml:"max_sessions" mapstructure:"max_sessions"`
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
	v.SetEnvPrefix("AREASELECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("catalog.root", "/home/jovyan/shared_space/welsh_areas")
	v.SetDefault("catalog.uploads_dir", "/home/jovyan/shared_space/uploads")
	v.SetDefault("catalog.uploads_label", "User uploads")
	v.SetDefault("catalog.draw_suffix", "Draw an area")
	v.SetDefault("buffer.default_meters", 100.0)
	v.SetDefault("buffer.presets_meters", []float64{100, 500, 1000, 5000, 10000, 25000, 50000})
	v.SetDefault("buffer.custom_min_km", 0.001)
	v.SetDefault("buffer.custom_max_km", 100.0)
	v.SetDefault("buffer.quadrant_segments", 16)
	v.SetDefault("progress.interval", "200ms")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.session_ttl", "1h")
	v.SetDefault("server.max_sessions", 256)
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

// Validate checks the settings a command needs. Mode is "catalog" for the
// dataset commands, "buffer" for buffering and "serve" for the HTTP adapter.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "catalog":
		problems = c.validateCatalog(problems)
	case "buffer":
		problems = c.validateCatalog(problems)
		problems = c.validateBuffer(problems)
	case "serve":
		problems = c.validateCatalog(problems)
		problems = c.validateBuffer(problems)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.SessionTTL <= 0 {
			problems = append(problems, "server.session_ttl must be > 0")
		}
		if c.Server.MaxSessions <= 0 {
			problems = append(problems, "server.max_sessions must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateCatalog(problems []string) []string {
	if c.Catalog.Root == "" {
		problems = append(problems, "catalog.root is required")
	}
	if c.Catalog.UploadsDir == "" {
		problems = append(problems, "catalog.uploads_dir is required")
	}
	return problems
}

func (c *Config) validateBuffer(problems []string) []string {
	b := c.Buffer
	if b.DefaultMeters <= 0 {
		problems = append(problems, "buffer.default_meters must be > 0")
	}
	for _, p := range b.PresetsMeters {
		if p <= 0 {
			problems = append(problems, "buffer.presets_meters values must be > 0")
			break
		}
	}
	if b.CustomMinKm <= 0 || b.CustomMaxKm < b.CustomMinKm {
		problems = append(problems, "buffer.custom_min_km must be > 0 and <= custom_max_km")
	}
	if b.QuadrantSegments < 1 {
		problems = append(problems, "buffer.quadrant_segments must be >= 1")
	}
	return problems
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
