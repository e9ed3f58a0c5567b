package log

import (
	"context"
	"fmt"
	"os"
	"time"
)

func fieldsFromSlice(fields []Field) Fields {
	if len(fields) == 0 {
		return nil
	}
	m := make(Fields, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func (l *BaseLogger) emit(level Level, msg string, extra Fields, err error) {
	if level < l.level {
		return
	}
	merged := make(Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	entry := &Entry{Level: level, Message: msg, Fields: merged, Timestamp: time.Now(), Error: err}
	formatted, ferr := l.formatter.Format(entry)
	if ferr != nil {
		return
	}
	for _, out := range l.outputs {
		_ = out.Write(entry, formatted)
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fieldsFromSlice(fields), nil) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fieldsFromSlice(fields), nil) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fieldsFromSlice(fields), nil) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fieldsFromSlice(fields), nil) }
func (l *BaseLogger) Fatal(msg string, fields ...Field) {
	l.emit(FatalLevel, msg, fieldsFromSlice(fields), nil)
	os.Exit(1)
}

func (l *BaseLogger) Debugf(msg string, args ...interface{}) { l.emit(DebugLevel, fmt.Sprintf(msg, args...), nil, nil) }
func (l *BaseLogger) Infof(msg string, args ...interface{})  { l.emit(InfoLevel, fmt.Sprintf(msg, args...), nil, nil) }
func (l *BaseLogger) Warnf(msg string, args ...interface{})  { l.emit(WarnLevel, fmt.Sprintf(msg, args...), nil, nil) }
func (l *BaseLogger) Errorf(msg string, args ...interface{}) { l.emit(ErrorLevel, fmt.Sprintf(msg, args...), nil, nil) }
func (l *BaseLogger) Fatalf(msg string, args ...interface{}) {
	l.emit(FatalLevel, fmt.Sprintf(msg, args...), nil, nil)
	os.Exit(1)
}

func (l *BaseLogger) clone() *BaseLogger {
	nf := make(Fields, len(l.fields))
	for k, v := range l.fields {
		nf[k] = v
	}
	return &BaseLogger{level: l.level, fields: nf, formatter: l.formatter, outputs: l.outputs}
}

func (l *BaseLogger) With(fields ...Field) Logger {
	nl := l.clone()
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	return l.With(Field{Key: key, Value: value})
}

func (l *BaseLogger) WithFields(fields Fields) Logger {
	fs := make([]Field, 0, len(fields))
	for k, v := range fields {
		fs = append(fs, Field{Key: k, Value: v})
	}
	return l.With(fs...)
}

func (l *BaseLogger) WithError(err error) Logger {
	return l.With(Field{Key: "error", Value: err})
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	cfields := ContextExtractor(ctx)
	if len(cfields) == 0 {
		return l
	}
	fs := make([]Field, 0, len(cfields))
	for k, v := range cfields {
		fs = append(fs, Field{Key: k, Value: v})
	}
	return l.With(fs...)
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Field{Key: ComponentKey, Value: component})
}

func (l *BaseLogger) SetLevel(level Level) { l.level = level }
func (l *BaseLogger) GetLevel() Level      { return l.level }
