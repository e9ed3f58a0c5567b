package log

import "time"

// Field is a single structured log attribute, the unit the Field-based
// Logger methods (Debug, Info, ...) accept in place of key/value pairs.
type Field struct {
	Key   string
	Value interface{}
}

func Str(key, value string) Field   { return Field{Key: key, Value: value} }
func Int(key string, v int) Field   { return Field{Key: key, Value: v} }
func Int64(key string, v int64) Field   { return Field{Key: key, Value: v} }
func Uint32(key string, v uint32) Field { return Field{Key: key, Value: v} }
func Uint64(key string, v uint64) Field { return Field{Key: key, Value: v} }
func Bool(key string, v bool) Field { return Field{Key: key, Value: v} }
func Duration(key string, v time.Duration) Field { return Field{Key: key, Value: v} }
func Err(err error) Field           { return Field{Key: "error", Value: err} }
func Component(name string) Field   { return Field{Key: ComponentKey, Value: name} }
