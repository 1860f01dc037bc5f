// Package form encodes request bodies for the vendor's servlets.
//
// The servlets read multipart form fields. Field order follows insertion order, which matters
// when reproducing browser traffic: session fields come first, then operation fields.
package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
)

// Fields is an insertion-ordered set of form fields.
type Fields struct {
	keys   []string
	values map[string]interface{}
}

// New returns Fields populated with alternating key/value pairs. It panics if kv has an odd length
// or a key is not a string, which indicates a programming error.
func New(kv ...interface{}) *Fields {
	if len(kv)%2 != 0 {
		panic("form.New: odd number of arguments")
	}
	f := &Fields{}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("form.New: key %v is not a string", kv[i]))
		}
		f.Set(key, kv[i+1])
	}
	return f
}

// Set assigns value to key. A new key is appended; an existing key keeps its position and takes
// the new value.
func (f *Fields) Set(key string, value interface{}) *Fields {
	if f.values == nil {
		f.values = make(map[string]interface{})
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

// Merge sets every field of other on f, in other's order. Values from other win.
func (f *Fields) Merge(other *Fields) *Fields {
	if other == nil {
		return f
	}
	for _, key := range other.keys {
		f.Set(key, other.values[key])
	}
	return f
}

// Get returns the value of key.
func (f *Fields) Get(key string) (interface{}, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Keys returns field names in order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns the fields as a plain map, dropping order. Used for logging.
func (f *Fields) Map() map[string]interface{} {
	m := make(map[string]interface{}, f.Len())
	for _, key := range f.Keys() {
		m[key] = f.values[key]
	}
	return m
}

// Encode returns the multipart body and its Content-Type header value. Nil values are omitted.
func (f *Fields) Encode() ([]byte, string) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, key := range f.Keys() {
		value := f.values[key]
		if value == nil {
			continue
		}
		// Writes into a bytes.Buffer do not fail.
		_ = w.WriteField(key, Render(value))
	}
	_ = w.Close()
	return body.Bytes(), w.FormDataContentType()
}

// Render converts a field value to the text the vendor expects. Scalars use their natural text
// form; composite values are JSON encoded.
func Render(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}
