package entity

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Transformer converts a property between its Go value and its column value.
// It is applied in both directions so that a value written by Serialize reads
// back to the same Go value through Deserialize.
type Transformer interface {
	// ToStorage converts the (dereferenced) field value into a driver value.
	ToStorage(v reflect.Value) (interface{}, error)

	// FromStorage decodes a driver value into dst. src may be nil.
	FromStorage(src interface{}, dst reflect.Value) error
}

// Names of the built-in transformers usable in struct tags.
const (
	TransformerBool         = "bool"
	TransformerJSON         = "json"
	TransformerBinary       = "binary"
	TransformerBinaryTwoWay = "binary-twoway"
	TransformerMsgpack      = "msgpack"
)

var transformers = struct {
	sync.RWMutex
	byName map[string]Transformer
}{
	byName: map[string]Transformer{
		TransformerBool:         boolTransformer{},
		TransformerJSON:         jsonTransformer{},
		TransformerBinary:       binaryTransformer{},
		TransformerBinaryTwoWay: binaryTransformer{twoway: true},
		TransformerMsgpack:      msgpackTransformer{},
	},
}

// RegisterTransformer makes t available to struct tags under name. Registering an
// existing name replaces it for types whose schema has not been computed yet.
func RegisterTransformer(name string, t Transformer) {
	transformers.Lock()
	defer transformers.Unlock()
	transformers.byName[name] = t
}

func transformer(name string) (Transformer, bool) {
	transformers.RLock()
	defer transformers.RUnlock()
	t, ok := transformers.byName[name]
	return t, ok
}

// settable prepares dst to receive a decoded value, allocating through a nil pointer.
func settable(dst reflect.Value) reflect.Value {
	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return dst.Elem()
	}
	return dst
}

// boolTransformer stores booleans as 1 and 0.
type boolTransformer struct{}

func (boolTransformer) ToStorage(v reflect.Value) (interface{}, error) {
	if v.Kind() != reflect.Bool {
		return v.Interface(), nil
	}
	if v.Bool() {
		return 1, nil
	}
	return 0, nil
}

func (boolTransformer) FromStorage(src interface{}, dst reflect.Value) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	var b bool
	switch s := src.(type) {
	case bool:
		b = s
	case []byte:
		b = string(s) == "1"
	case string:
		b = s == "1"
	default:
		sv := reflect.ValueOf(src)
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			b = sv.Int() == 1
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			b = sv.Uint() == 1
		default:
			return fmt.Errorf("%w: %T into bool", ErrUnassignable, src)
		}
	}

	target := settable(dst)
	if target.Kind() != reflect.Bool {
		return fmt.Errorf("%w: bool into %s", ErrUnassignable, dst.Type())
	}
	target.SetBool(b)
	return nil
}

// jsonTransformer stores a value as its JSON text.
type jsonTransformer struct{}

func (jsonTransformer) ToStorage(v reflect.Value) (interface{}, error) {
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (jsonTransformer) FromStorage(src interface{}, dst reflect.Value) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		// already decoded by the driver
		return assign(dst, src)
	}
	return json.Unmarshal(data, dst.Addr().Interface())
}

// binaryTransformer reads binary columns back as strings. With twoway set,
// strings are also written as bytes.
type binaryTransformer struct {
	twoway bool
}

func (t binaryTransformer) ToStorage(v reflect.Value) (interface{}, error) {
	if t.twoway && v.Kind() == reflect.String {
		return []byte(v.String()), nil
	}
	return v.Interface(), nil
}

func (binaryTransformer) FromStorage(src interface{}, dst reflect.Value) error {
	if b, ok := src.([]byte); ok {
		target := settable(dst)
		if target.Kind() == reflect.String {
			target.SetString(string(b))
			return nil
		}
	}
	return assign(dst, src)
}

// msgpackTransformer stores a value as MessagePack bytes.
type msgpackTransformer struct{}

func (msgpackTransformer) ToStorage(v reflect.Value) (interface{}, error) {
	return msgpack.Marshal(v.Interface())
}

func (msgpackTransformer) FromStorage(src interface{}, dst reflect.Value) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("%w: %T into %s", ErrUnassignable, src, dst.Type())
	}
	return msgpack.Unmarshal(data, dst.Addr().Interface())
}
