package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global zerolog logger. Development gets a console writer on stderr,
// other environments JSON. When LogFile is set the output is copied to a rotated file.
func Setup(cfg config.AppConfig, service string) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: invalid log level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	if cfg.LogFile != "" {
		rot := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		out = zerolog.MultiLevelWriter(out, rot)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()
	return nil
}
