package utilities

import (
	"fmt"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Level string `env:"LOG_LEVEL"`
	Dev   bool   `env:"LOG_DEV"`
	// File enables a rotated log file next to stdout when set.
	File     string        `env:"LOG_FILE"`
	MaxAge   time.Duration `env:"LOG_MAX_AGE" envDefault:"168h"`
	Rotation time.Duration `env:"LOG_ROTATION" envDefault:"24h"`
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("log config: %w", err)
	}
	if cfg.Level == "" {
		if cfg.Dev {
			cfg.Level = "debug"
		} else {
			cfg.Level = "info"
		}
	}
	return cfg, nil
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger. Dev mode logs in console
// format, production in JSON; both tee to the rotated LOG_FILE when set.
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)

	sink := zapcore.AddSync(os.Stdout)
	if cfg.File != "" {
		w, err := rotatingFile(cfg)
		if err != nil {
			return nil, err
		}
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(w))
	}

	if cfg.Dev {
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), sink, lvl)
		return zap.New(core, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel)), nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, lvl)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(core, opts...), nil
}

// rotatingFile writes to <file>.YYYYMMDD and keeps <file> as a symlink to the current segment.
func rotatingFile(cfg Config) (*rotatelogs.RotateLogs, error) {
	w, err := rotatelogs.New(
		cfg.File+".%Y%m%d",
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithMaxAge(cfg.MaxAge),
		rotatelogs.WithRotationTime(cfg.Rotation),
	)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	return w, nil
}
