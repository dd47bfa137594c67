// Package logging builds the process logger: a console core on stderr and,
// optionally, a JSON file core for the run log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/obenchekro/namkin-data-migration/internal/config"
)

// New builds a logger from cfg and installs it as the zap global so packages
// logging through zap.S() share it. The returned function flushes the cores,
// closes the log file and restores the previous globals.
func New(cfg config.Logging) (*zap.SugaredLogger, func(), error) {
	return build(cfg, os.Stderr)
}

func build(cfg config.Logging, console io.Writer) (*zap.SugaredLogger, func(), error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}

	consoleEnc := zap.NewDevelopmentEncoderConfig()
	consoleEnc.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(zapcore.AddSync(console)), level),
	}

	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", cfg.File, err)
		}
		file = f
		fileEnc := zap.NewProductionEncoderConfig()
		fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	restore := zap.ReplaceGlobals(logger)

	closeFn := func() {
		_ = logger.Sync()
		restore()
		if file != nil {
			_ = file.Close()
		}
	}
	return logger.Sugar(), closeFn, nil
}
