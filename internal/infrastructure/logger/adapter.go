// Package logger adapts go.uber.org/zap to ports.Logger, keeping the
// teacher's per-task log file convention: one JSON-lines file per task
// under ./log, named by timestamp and a sanitized task name.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"browser-agent/internal/domain/ports"
)

var _ ports.Logger = (*ZapLogger)(nil)

// ZapLogger implements ports.Logger over a zap.Logger writing structured
// JSON lines to a per-task file.
type ZapLogger struct {
	zap  *zap.Logger
	file *os.File
}

// NewLogger creates a per-task JSON logger under ./log/<timestamp>_<task>.log.
func NewLogger(task string) (ports.Logger, error) {
	safeName := sanitize(task)
	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), safeName)

	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.Create(filepath.Join("log", filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.NewMultiWriteSyncer(zapcore.AddSync(file), zapcore.AddSync(os.Stdout)), zap.NewAtomicLevelAt(zap.DebugLevel))
	return &ZapLogger{zap: zap.New(core), file: file}, nil
}

func (l *ZapLogger) Debug(msg string, fields ...any) { l.zap.Sugar().Debugw(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...any)  { l.zap.Sugar().Infow(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...any)  { l.zap.Sugar().Warnw(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...any) { l.zap.Sugar().Errorw(msg, fields...) }

// With returns a logger whose every subsequent entry carries fields.
func (l *ZapLogger) With(fields ...any) ports.Logger {
	return &ZapLogger{zap: l.zap.Sugar().With(fields...).Desugar(), file: l.file}
}

func (l *ZapLogger) Close() error {
	_ = l.zap.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func sanitize(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	name := string(result)
	if name == "" {
		return "task"
	}
	if len(name) > 60 {
		name = name[:60]
	}
	return name
}
