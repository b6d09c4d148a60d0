package utils

// logger.go - структурированное логирование на базе zap
//
// InitLogger создает логгер по конфигурации (уровень, формат, вывод).
// Глобальный логгер доступен через GetGlobalLogger / L().

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - настройки логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, text
	Output      string // путь к файлу; пусто = stderr
	Development bool
}

// Logger - обертка над zap.Logger с доменными хелперами
type Logger struct {
	*zap.Logger
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitLogger создает новый логгер
//
// Если файл вывода открыть не удалось, пишет в stderr.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(cfg.Format, "text") || strings.EqualFold(cfg.Format, "console") {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	sink := zapcore.Lock(os.Stderr)
	if cfg.Output != "" && cfg.Output != "stderr" {
		if cfg.Output == "stdout" {
			sink = zapcore.Lock(os.Stdout)
		} else if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	l := zap.New(core, opts...)
	return &Logger{Logger: l}
}

// NewNopLogger возвращает логгер который ничего не пишет (для тестов)
func NewNopLogger() *Logger {
	l := zap.NewNop()
	return &Logger{Logger: l}
}

// FromZap оборачивает готовый zap.Logger
func FromZap(l *zap.Logger) *Logger {
	return &Logger{Logger: l}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// With возвращает дочерний логгер с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{Logger: child}
}

// WithComponent добавляет имя компонента
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithOrderID добавляет ID ордера
func (l *Logger) WithOrderID(id string) *Logger {
	return l.With(OrderID(id))
}

// WithClientID добавляет ID WebSocket клиента
func (l *Logger) WithClientID(id string) *Logger {
	return l.With(ClientID(id))
}

// ============ Глобальный логгер ============

// GetGlobalLogger возвращает глобальный логгер, создавая его при первом вызове
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{Level: "info", Format: "json"})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// InitGlobalLogger создает логгер и делает его глобальным
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger заменяет глобальный логгер
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Warn пишет в глобальный логгер
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// ============ Доменные конструкторы полей ============

func OrderID(id string) zap.Field { return zap.String("order_id", id) }
func Stoks(symbol string) zap.Field { return zap.String("stoks", symbol) }
func Quantity(q float64) zap.Field { return zap.Float64("quantity", q) }
func Status(status string) zap.Field { return zap.String("status", status) }
func ClientID(id string) zap.Field { return zap.String("client_id", id) }
func Component(name string) zap.Field { return zap.String("component", name) }
func Method(m string) zap.Field { return zap.String("method", m) }
func Path(p string) zap.Field { return zap.String("path", p) }
func StatusCode(code int) zap.Field { return zap.Int("status_code", code) }
func Latency(d time.Duration) zap.Field { return zap.Duration("latency", d) }
func RemoteAddr(addr string) zap.Field { return zap.String("remote_addr", addr) }
func Clients(n int) zap.Field { return zap.Int("clients", n) }

// Field - поле структурированного лога
type Field = zap.Field

// Переэкспорт базовых конструкторов zap

var (
	String = zap.String
	Int64  = zap.Int64
	Err    = zap.Error
	Any    = zap.Any
)
