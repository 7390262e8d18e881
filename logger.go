package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

// ============================================================================
// Logger: zap 文件日志，按天切换文件
// ============================================================================

// Logger 所有字段都由 mu 保护；HTTP 服务会在多个 goroutine 中同时写日志
type Logger struct {
	mu         sync.Mutex
	zap        *zap.Logger
	file       *os.File
	currentDay string // YYYY-MM-DD
	logDir     string
	level      LogLevel
	now        func() time.Time
}

var globalLogger *Logger

// newLogger 创建日志并打开今天的文件
func newLogger(logDir string, level LogLevel, now func() time.Time) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create log directory")
	}
	l := &Logger{logDir: logDir, level: level, now: now}
	if _, err := l.current(); err != nil {
		return nil, err
	}
	return l, nil
}

// InitLogger 初始化全局日志
func InitLogger(logDir string, level LogLevel) error {
	l, err := newLogger(logDir, level, time.Now)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// current 返回当天的 zap 实例，跨天时先切换文件
func (l *Logger) current() (*zap.Logger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format("2006-01-02")
	if l.currentDay == today && l.zap != nil {
		return l.zap, nil
	}

	l.closeLocked()

	logPath := filepath.Join(l.logDir, "stock-chart-"+today+".log")
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", logPath)
	}

	// [2006-01-02 15:04:05] [INFO] message key=log.chart.loaded
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeLevel:      bracketLevelEncoder,
		EncodeTime:       bracketTimeEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(file),
		levelToZapLevel(l.level),
	)

	l.zap = zap.New(core)
	l.file = file
	l.currentDay = today
	return l.zap, nil
}

func (l *Logger) closeLocked() {
	if l.zap != nil {
		l.zap.Sync()
		l.zap = nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}

func bracketTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05") + "]")
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func levelToZapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// parseLogLevel 配置中的 log_level 字符串
func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogDebug
	case "warn", "warning":
		return LogWarn
	case "error":
		return LogError
	}
	return LogInfo
}

// Log 写一条日志；key 为 i18n 键名，非空时作为 key 字段输出便于过滤
func (l *Logger) Log(level LogLevel, key string, message string) {
	z, err := l.current()
	if err != nil {
		return
	}

	ce := z.Check(levelToZapLevel(level), message)
	if ce == nil {
		return
	}
	if key != "" {
		ce.Write(zap.String("key", key))
		return
	}
	ce.Write()
}

// Close 刷新并关闭当前文件
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeLocked()
}

// SyncLogger 退出前刷新全局日志
func SyncLogger() {
	if globalLogger != nil {
		globalLogger.Close()
	}
}
