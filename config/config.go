// Package config holds the settings of the tinst command line tool.
//
// Settings are layered: built-in defaults, then an optional YAML file, then
// environment variables. A .env file in the working directory is loaded
// before the environment is read; variables already set win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	tinst "github.com/toutaio/toutago-tinst"
)

// Environment variables read by Load.
const (
	EnvLogLevel         = "TINST_LOG_LEVEL"
	EnvDefaultLifecycle = "TINST_DEFAULT_LIFECYCLE"
	EnvOutput           = "TINST_OUTPUT"
	EnvParallel         = "TINST_PARALLEL"
)

// Output formats.
const (
	OutputTree    = "tree"
	OutputSummary = "summary"
)

// Config is the CLI configuration.
type Config struct {
	LogLevel         string `yaml:"log_level" validate:"oneof=debug info warn error"`
	DefaultLifecycle string `yaml:"default_lifecycle" validate:"oneof=per-method per-class"`
	Output           string `yaml:"output" validate:"oneof=tree summary"`
	Parallel         int    `yaml:"parallel" validate:"min=1,max=64"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:         "info",
		DefaultLifecycle: tinst.LifecycleFreshPerTest.String(),
		Output:           OutputTree,
		Parallel:         1,
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment. envFiles defaults to ".env";
// missing env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		cfg = merge(cfg, fileCfg)
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// .env is optional
	_ = godotenv.Load(envFiles...)

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// merge overlays the non-zero fields of overlay onto base.
func merge(base, overlay Config) Config {
	merged := base
	if overlay.LogLevel != "" {
		merged.LogLevel = overlay.LogLevel
	}
	if overlay.DefaultLifecycle != "" {
		merged.DefaultLifecycle = overlay.DefaultLifecycle
	}
	if overlay.Output != "" {
		merged.Output = overlay.Output
	}
	if overlay.Parallel != 0 {
		merged.Parallel = overlay.Parallel
	}
	return merged
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDefaultLifecycle); v != "" {
		cfg.DefaultLifecycle = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v := os.Getenv(EnvParallel); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvParallel, v, err)
		}
		cfg.Parallel = n
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %v (%s=%s)", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Lifecycle returns the default lifecycle as a tinst.Lifecycle.
func (c Config) Lifecycle() tinst.Lifecycle {
	l, err := tinst.ParseLifecycle(c.DefaultLifecycle)
	if err != nil {
		return tinst.LifecycleFreshPerTest
	}
	return l
}

// Logger builds a production zap logger at the configured level. verbose
// forces debug.
func (c Config) Logger(verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
