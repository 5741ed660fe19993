package codec

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var htmlTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Visibility selects which fields the rendered forms treat as editable.
// It is fixed at construction; the boundary layer picks it from the
// authenticated role, the codec itself carries no auth logic.
type Visibility int

const (
	// VisibilityDeclared exposes only the schema's writable fields.
	VisibilityDeclared Visibility = iota

	// VisibilityAll exposes every field as editable, for elevated
	// callers.
	VisibilityAll
)

// HTML renders entities as browser pages with edit forms and decodes
// form-encoded submissions. Unlike the other codecs it is built per
// entity kind, so collection pages can render a blank create form, and
// per request, so pages can show the signed-in viewer.
type HTML struct {
	typ        entity.Descriptor
	visibility Visibility
	viewer     entity.Identity
}

// NewHTML creates an HTML codec for one entity kind.
func NewHTML(typ entity.Descriptor, visibility Visibility, viewer entity.Identity) *HTML {
	return &HTML{typ: typ, visibility: visibility, viewer: viewer}
}

func (c *HTML) ContentType() string { return "text/html; charset=utf-8" }

// htmlField is one rendered form field.
type htmlField struct {
	Key      string
	Value    string
	Writable bool
	Rows     int
	Columns  int
}

type htmlItem struct {
	Link   string
	Values []string
}

type htmlPage struct {
	Title  string
	Link   string
	Fields []htmlField
	Keys   []string
	Items  []htmlItem
	Viewer entity.Identity
}

func (c *HTML) Encode(v any) ([]byte, error) {
	entities, single, err := asEntities(v)
	if err != nil {
		return nil, err
	}

	var name string
	var page htmlPage
	if single {
		name = "one.html"
		page = c.onePage(entities[0])
	} else {
		name = "all.html"
		page = c.allPage(entities)
	}

	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func (c *HTML) onePage(e entity.Entity) htmlPage {
	return htmlPage{
		Title:  c.typ.Kind + " " + e.ID(),
		Link:   e.Link(true),
		Fields: c.fieldList(flatten(e)),
		Viewer: c.viewer,
	}
}

func (c *HTML) allPage(entities []entity.Entity) htmlPage {
	page := htmlPage{
		Title:  c.typ.Kind + " collection",
		Link:   c.RedirectURL(nil),
		Keys:   c.typ.Schema.Keys,
		Fields: c.fieldList(nil),
		Viewer: c.viewer,
	}
	for _, e := range entities {
		fields := flatten(e)
		item := htmlItem{Link: e.Link(true)}
		for _, key := range page.Keys {
			item.Values = append(item.Values, fields[key])
		}
		page.Items = append(page.Items, item)
	}
	return page
}

// fieldList renders the schema's fields in declared order. A nil field
// map produces a blank form.
func (c *HTML) fieldList(fields map[string]string) []htmlField {
	writable := make(map[string]bool, len(c.typ.Schema.Writable))
	for _, key := range c.typ.Schema.Writable {
		writable[key] = true
	}

	list := make([]htmlField, 0, len(c.typ.Schema.Keys))
	for _, key := range c.typ.Schema.Keys {
		list = append(list, htmlField{
			Key:      key,
			Value:    fields[key],
			Writable: c.visibility == VisibilityAll || writable[key],
			Rows:     c.typ.Schema.Rows[key],
			Columns:  c.typ.Schema.Columns[key],
		})
	}
	return list
}

// Decode parses a form-encoded submission. Repeated fields keep their
// first value.
func (c *HTML) Decode(body []byte) (entity.KV, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	kv := make(entity.KV, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			kv[key] = vals[0]
		}
	}
	return kv, nil
}

// RedirectURL returns where a browser should land after a mutation: the
// object's canonical page, or the collection root when obj is nil.
func (c *HTML) RedirectURL(obj entity.Entity) string {
	if obj != nil {
		return obj.Link(true)
	}
	return c.typ.New().Link(false)
}
