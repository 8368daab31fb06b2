package logging

import (
	"time"

	"github.com/mewdb/mew/pkg/store"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Component field helpers for common component names
func Component(name string) Field {
	return String("component", name)
}

// EntityID logs a node or edge id using its "n123"/"e456" string form, so
// a JSON viewer doesn't have to decode the top bit to tell which space
// it came from.
func EntityID(id store.EntityId) Field {
	return String("entity_id", id.String())
}

func TxnID(id uint64) Field {
	return Uint64("txn_id", id)
}

func RuleID(id store.RuleId) Field {
	return Uint64("rule_id", uint64(id))
}

func ConstraintID(id store.ConstraintId) Field {
	return Uint64("constraint_id", uint64(id))
}

func LSN(lsn uint64) Field {
	return Uint64("lsn", lsn)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
