package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// YAML encodes a single entity as a flat mapping and a collection as a
// sequence of mappings. Mapping keys keep the schema's declared order.
type YAML struct{}

// NewYAML creates the YAML codec.
func NewYAML() *YAML { return &YAML{} }

func (c *YAML) ContentType() string { return "application/x-yaml" }

func (c *YAML) Encode(v any) ([]byte, error) {
	entities, single, err := asEntities(v)
	if err != nil {
		return nil, err
	}

	var node *yaml.Node
	if single {
		node = mappingNode(entities[0])
	} else {
		node = &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range entities {
			node.Content = append(node.Content, mappingNode(e))
		}
	}

	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

// mappingNode builds a flow-ordered mapping node so field order follows
// the schema rather than yaml's alphabetical map sorting.
func mappingNode(e entity.Entity) *yaml.Node {
	fields := flatten(e)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range orderedKeys(e.Schema(), fields) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: fields[key]},
		)
	}
	return node
}

func (c *YAML) Decode(body []byte) (entity.KV, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var raw map[string]any
	if err := yaml.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a mapping", ErrDecode)
	}
	return toKV(raw), nil
}
