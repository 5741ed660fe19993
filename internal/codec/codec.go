package codec

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// TimeFormat is the wire rendering of timestamp fields across every
// format.
const TimeFormat = "2006-01-02 15:04:05"

var (
	// ErrDecode indicates a syntactically malformed request body.
	ErrDecode = errors.New("codec: malformed input")

	// ErrEmptyBody indicates a missing request body where one was
	// required. Distinct from ErrDecode so the boundary can map it to a
	// caller error rather than a server fault.
	ErrEmptyBody = errors.New("codec: empty body")

	// ErrEncode indicates a response body could not be produced.
	ErrEncode = errors.New("codec: encode failed")
)

// Codec converts between wire bodies and entity field maps. Encode
// accepts a single entity.Entity or a []entity.Entity; Decode produces
// one object's worth of fields.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(body []byte) (entity.KV, error)
	ContentType() string
}

// flatten renders an entity's complete field map as wire strings,
// recursively merging any nested map value into the top level.
func flatten(e entity.Entity) map[string]string {
	out := make(map[string]string)
	for key, value := range e.Fields() {
		flattenValue(out, key, value)
	}
	return out
}

func flattenValue(out map[string]string, key string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for k, nested := range v {
			flattenValue(out, k, nested)
		}
	case map[string]string:
		for k, nested := range v {
			out[k] = nested
		}
	default:
		out[key] = stringify(value)
	}
}

// stringify normalizes one field value to its wire string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(TimeFormat)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toKV stringifies a generic decoded mapping into an entity.KV.
func toKV(raw map[string]any) entity.KV {
	kv := make(entity.KV, len(raw))
	for key, value := range raw {
		kv[key] = stringify(value)
	}
	return kv
}

// asEntities normalizes the Encode input: a single entity.Entity becomes
// a one-element slice with single=true.
func asEntities(v any) ([]entity.Entity, bool, error) {
	switch val := v.(type) {
	case entity.Entity:
		return []entity.Entity{val}, true, nil
	case []entity.Entity:
		return val, false, nil
	default:
		return nil, false, fmt.Errorf("%w: unsupported value %T", ErrEncode, v)
	}
}

// orderedKeys returns the schema keys that actually appear in the
// flattened field map, preserving declared order, followed by any extra
// flattened keys the schema does not declare.
func orderedKeys(schema entity.Schema, fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, key := range schema.Keys {
		if _, ok := fields[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	var extra []string
	for key := range fields {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
