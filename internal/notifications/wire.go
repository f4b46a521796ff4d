package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Field is one optional member of a wire payload.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for building a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// CompactJSON encodes fields as a JSON object in the given order, dropping
// absent values (nil, nil pointers, empty strings, and empty slices or maps)
// instead of serializing them as null.
func CompactJSON(fields ...Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for _, field := range fields {
		if absent(field.Value) {
			continue
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", field.Key, err)
		}
		value, err := marshalRaw(field.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", field.Key, err)
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		written++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw encodes without HTML escaping so quote markers and ampersands
// reach chat clients verbatim.
func marshalRaw(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func absent(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}
