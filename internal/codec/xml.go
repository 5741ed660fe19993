package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// XML encodes each entity as one element carrying its fields as
// attributes. The element is named after the leading segment of the
// entity's collection link; collections are wrapped in a root element.
type XML struct{}

// NewXML creates the XML codec.
func NewXML() *XML { return &XML{} }

const xmlRootName = "root"

func (c *XML) ContentType() string { return "application/xml" }

func (c *XML) Encode(v any) ([]byte, error) {
	entities, single, err := asEntities(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	if single {
		if err := encodeElement(enc, entities[0]); err != nil {
			return nil, err
		}
	} else {
		root := xml.StartElement{Name: xml.Name{Local: xmlRootName}}
		if err := enc.EncodeToken(root); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		for _, e := range entities {
			if err := encodeElement(enc, e); err != nil {
				return nil, err
			}
		}
		if err := enc.EncodeToken(root.End()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}

	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, e entity.Entity) error {
	fields := flatten(e)

	start := xml.StartElement{Name: xml.Name{Local: linkSlug(e)}}
	for _, key := range orderedKeys(e.Schema(), fields) {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: key},
			Value: fields[key],
		})
	}

	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// linkSlug returns the leading path segment of the entity's collection
// link.
func linkSlug(e entity.Entity) string {
	link := strings.Trim(e.Link(false), "/")
	if i := strings.IndexByte(link, '/'); i >= 0 {
		link = link[:i]
	}
	if link == "" {
		return e.Kind()
	}
	return link
}

// Decode parses the first attributed element. Sibling elements beyond
// the first are tolerated; DecodeAll exposes all of them.
func (c *XML) Decode(body []byte) (entity.KV, error) {
	objects, err := c.DecodeAll(body)
	if err != nil {
		return nil, err
	}
	return objects[0], nil
}

// DecodeAll parses every attributed element in document order, skipping
// bare wrapper elements.
func (c *XML) DecodeAll(body []byte) ([]entity.KV, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	var objects []entity.KV
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || len(start.Attr) == 0 {
			continue
		}

		kv := make(entity.KV, len(start.Attr))
		for _, attr := range start.Attr {
			kv[attr.Name.Local] = attr.Value
		}
		objects = append(objects, kv)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("%w: no attributed elements", ErrDecode)
	}
	return objects, nil
}
