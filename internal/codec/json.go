package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// JSON encodes entities as flat string objects: a single entity is one
// object, a collection an array of objects.
type JSON struct{}

// NewJSON creates the JSON codec.
func NewJSON() *JSON { return &JSON{} }

func (c *JSON) ContentType() string { return "application/json" }

func (c *JSON) Encode(v any) ([]byte, error) {
	entities, single, err := asEntities(v)
	if err != nil {
		return nil, err
	}

	if single {
		return marshalJSON(flatten(entities[0]))
	}

	objects := make([]map[string]string, 0, len(entities))
	for _, e := range entities {
		objects = append(objects, flatten(e))
	}
	return marshalJSON(objects)
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

func (c *JSON) Decode(body []byte) (entity.KV, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return toKV(raw), nil
}
