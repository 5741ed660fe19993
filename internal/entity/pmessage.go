package entity

var pmessageKeys = []string{
	"pub_id", "message",
	"user_id", "created", "modified", "revision", "key",
}

var pmessageSchema = NewSchema(pmessageKeys, 2, nil, nil)

// PMessage is a message published to a topic. It is created as a child
// of the publication it targets; after the write commits, a push
// notification fans out to every device subscribed to that publication.
type PMessage struct {
	Base

	PubID   string `json:"pub_id"`
	Message string `json:"message"`
}

// PMessageType describes PMessage to the generic adapter.
var PMessageType = Descriptor{
	Kind:         KindPMessage,
	New:          func() Entity { return &PMessage{} },
	KeyAddressed: true,
	Schema:       pmessageSchema,
}

func (m *PMessage) Kind() string { return KindPMessage }

func (m *PMessage) ID() string { return m.Base.Key }

func (m *PMessage) Link(includeID bool) string {
	if includeID {
		return "/publication/" + m.PubID + "/message/" + m.Base.Key + "/"
	}
	return "/publication/" + m.PubID + "/"
}

func (m *PMessage) Load(caller Identity, kv KV) error {
	pubID, err := ValidateNotEmpty("pub_id", kv.Get("pub_id", ""))
	if err != nil {
		return err
	}
	message, err := ValidateNotEmpty("message", kv.Get("message", "debug-message"))
	if err != nil {
		return err
	}

	m.PubID = pubID
	m.Message = message
	m.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (m *PMessage) Fields() map[string]any {
	fields := map[string]any{
		"pub_id":  m.PubID,
		"message": m.Message,
	}
	m.metaFields(fields)
	return fields
}

func (m *PMessage) Schema() Schema { return pmessageSchema }
