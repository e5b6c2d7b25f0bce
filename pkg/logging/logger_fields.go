package logging

import (
	"time"
)

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
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

// Domain fields. Keys are shared by every package so log queries stay uniform.

func Component(name string) Field { return String("component", name) }

func NodeID(id string) Field { return String("node_id", id) }

func EdgeID(id string) Field { return String("edge_id", id) }

func Source(id string) Field { return String("source", id) }

func Destination(id string) Field { return String("destination", id) }

func Floor(floor string) Field { return String("floor", floor) }

func Cost(c float64) Field { return Float64("cost", c) }

// Kind records the error taxonomy kind (not_found, conflict, ...).
func Kind(kind string) Field { return String("kind", kind) }

func GraphVersion(v uint64) Field { return Uint64("graph_version", v) }

func RequestID(id string) Field { return String("request_id", id) }

func Operation(op string) Field { return String("operation", op) }

func Latency(d time.Duration) Field { return Duration("latency", d) }

func Count(n int) Field { return Int("count", n) }

func Path(p string) Field { return String("path", p) }
