package entity

var publicationKeys = []string{
	"topic", "description",
	"user_id", "created", "modified", "revision", "key",
}

var publicationSchema = NewSchema(publicationKeys, 2, nil, nil)

// Publication is a named topic messages can be published to. It is
// key-addressed: the externally visible id is the opaque store key, and
// subscriptions reference it by that key (pub_id).
type Publication struct {
	Base

	Topic       string `json:"topic"`
	Description string `json:"description"`
}

// PublicationType describes Publication to the generic adapter.
var PublicationType = Descriptor{
	Kind:         KindPublication,
	New:          func() Entity { return &Publication{} },
	KeyAddressed: true,
	Schema:       publicationSchema,
}

func (p *Publication) Kind() string { return KindPublication }

func (p *Publication) ID() string { return p.Base.Key }

func (p *Publication) Link(includeID bool) string {
	if includeID {
		return "/publication/" + p.ID() + "/"
	}
	return "/publication/"
}

func (p *Publication) Load(caller Identity, kv KV) error {
	topic, err := ValidateNotEmpty("topic", kv.Get("topic", "debug-topic"))
	if err != nil {
		return err
	}
	description, err := ValidateNotEmpty("description", kv.Get("description", "debug-description"))
	if err != nil {
		return err
	}

	p.Topic = topic
	p.Description = description
	p.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (p *Publication) Fields() map[string]any {
	fields := map[string]any{
		"topic":       p.Topic,
		"description": p.Description,
	}
	p.metaFields(fields)
	return fields
}

func (p *Publication) Schema() Schema { return publicationSchema }
