package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is the store-native date representation.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// ToDate converts the timestamp to a UTC time.Time.
func (ts Timestamp) ToDate() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

type deleteField struct{}

// DeleteField removes the key when used as a value in a merge write.
var DeleteField any = deleteField{}

// timestampKey tags encoded timestamps in the JSON form of a document.
const timestampKey = "$ts"

// Clone returns a deep copy of f.
func Clone(f Fields) Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case Fields:
		return Clone(x)
	case map[string]any:
		return Clone(Fields(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Merge applies src onto dst and returns dst. Nested Fields merge key by key;
// DeleteField values remove the key.
func Merge(dst, src Fields) Fields {
	if dst == nil {
		dst = Fields{}
	}
	for k, v := range src {
		if _, del := v.(deleteField); del {
			delete(dst, k)
			continue
		}
		if nested, ok := asFields(v); ok {
			if existing, ok := asFields(dst[k]); ok {
				dst[k] = Merge(Clone(existing), nested)
				continue
			}
			dst[k] = stripDeletes(Clone(nested))
			continue
		}
		dst[k] = cloneValue(v)
	}
	return dst
}

func stripDeletes(f Fields) Fields {
	for k, v := range f {
		if _, del := v.(deleteField); del {
			delete(f, k)
		} else if nested, ok := asFields(v); ok {
			f[k] = stripDeletes(nested)
		}
	}
	return f
}

func asFields(v any) (Fields, bool) {
	switch x := v.(type) {
	case Fields:
		return x, true
	case map[string]any:
		return Fields(x), true
	}
	return nil, false
}

// EncodeJSON serializes fields, tagging timestamps so they survive a round trip.
func EncodeJSON(f Fields) ([]byte, error) {
	data, err := json.Marshal(encodeValue(f))
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return data, nil
}

// DecodeJSON parses EncodeJSON output. Integral numbers decode as int64.
func DecodeJSON(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	out, _ := decodeValue(raw).(Fields)
	if out == nil {
		out = Fields{}
	}
	return out, nil
}

func encodeValue(v any) any {
	switch x := v.(type) {
	case Timestamp:
		return map[string]any{timestampKey: x.ToDate().Format(time.RFC3339Nano)}
	case time.Time:
		return map[string]any{timestampKey: x.UTC().Format(time.RFC3339Nano)}
	case Fields:
		return encodeMap(x)
	case map[string]any:
		return encodeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = encodeValue(e)
		}
		return out
	default:
		return v
	}
}

func encodeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, del := v.(deleteField); del {
			continue
		}
		out[k] = encodeValue(v)
	}
	return out
}

func decodeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 1 {
			if s, ok := x[timestampKey].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return TimestampOf(t)
				}
			}
		}
		out := make(Fields, len(x))
		for k, e := range x {
			out[k] = decodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = decodeValue(e)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	default:
		return v
	}
}
