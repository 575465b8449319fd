package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - настройки логирования
type LogConfig struct {
	// Уровень: debug, info, warn, error, fatal
	Level string

	// Формат: json или text
	Format string

	// Development включает caller и stacktrace на warn
	Development bool

	// Output - путь к файлу лога; пустое значение - stderr
	Output string
}

// Logger оборачивает zap.Logger и добавляет доменные конструкторы полей
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger создает настроенный логгер.
// Некорректные значения уровня и формата заменяются на info/json,
// недоступный файл вывода - на stderr.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	var encoderConfig zapcore.EncoderConfig
	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(config.Format) {
	case "text", "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	sink := zapcore.AddSync(os.Stderr)
	if config.Output != "" {
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddCaller())
	}

	zl := zap.New(core, opts...)

	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// parseLevel преобразует строковый уровень в zapcore.Level.
// Неизвестные значения трактуются как info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
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

// Sugar возвращает SugaredLogger для printf-style логирования
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// With возвращает логгер с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// WithComponent возвращает логгер с полем компонента
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// WithUserID возвращает логгер с полем пользователя
func (l *Logger) WithUserID(userID int64) *Logger {
	return l.With(UserID(userID))
}

// WithToken возвращает логгер с полем токена
func (l *Logger) WithToken(token string) *Logger {
	return l.With(Token(token))
}

// WithPositionID возвращает логгер с полем позиции
func (l *Logger) WithPositionID(positionID int64) *Logger {
	return l.With(PositionID(positionID))
}

// ============ Глобальный логгер ============

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// InitGlobalLogger инициализирует глобальный логгер
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный логгер, создавая дефолтный
// при первом обращении
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// Глобальные функции логирования

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }

func Debugf(template string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(template, args...) }
func Infof(template string, args ...interface{})  { GetGlobalLogger().sugar.Infof(template, args...) }
func Warnf(template string, args ...interface{})  { GetGlobalLogger().sugar.Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(template, args...) }

// ============ Доменные конструкторы полей ============

// Token - поле адреса/символа токена
func Token(token string) zap.Field { return zap.String("token", token) }

// PositionID - поле ID позиции
func PositionID(id int64) zap.Field { return zap.Int64("position_id", id) }

// UserID - поле ID пользователя
func UserID(id int64) zap.Field { return zap.Int64("user_id", id) }

// Price - поле цены в SOL
func Price(price float64) zap.Field { return zap.Float64("price", price) }

// Size - поле размера позиции в SOL
func Size(size float64) zap.Field { return zap.Float64("size", size) }

// PNL - поле прибыли/убытка
func PNL(pnl float64) zap.Field { return zap.Float64("pnl", pnl) }

// Side - поле направления позиции (long/short)
func Side(side string) zap.Field { return zap.String("side", side) }

// Status - поле статуса позиции
func Status(status string) zap.Field { return zap.String("status", status) }

// Latency - поле задержки в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// RequestID - поле ID запроса
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// Component - поле имени компонента
func Component(name string) zap.Field { return zap.String("component", name) }

// Переэкспорт стандартных конструкторов zap

func String(key, value string) zap.Field       { return zap.String(key, value) }
func Int(key string, value int) zap.Field      { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field  { return zap.Int64(key, value) }
func Float64(key string, v float64) zap.Field  { return zap.Float64(key, v) }
func Bool(key string, value bool) zap.Field    { return zap.Bool(key, value) }
func Err(err error) zap.Field                  { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// fieldsToInterface разворачивает zap поля в плоский список key/value
func fieldsToInterface(fields []zap.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		var value interface{}
		switch {
		case f.Interface != nil:
			value = f.Interface
		case f.String != "":
			value = f.String
		default:
			value = f.Integer
		}
		out = append(out, f.Key, value)
	}
	return out
}
