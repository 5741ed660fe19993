package entity

var umessageKeys = []string{
	"to_user_id", "message",
	"user_id", "created", "modified", "revision", "key",
}

var umessageSchema = NewSchema(umessageKeys, 2,
	map[string]int{"message": 80}, map[string]int{"message": 5})

// UMessage is a message addressed to another user. It is created as a
// child of the recipient's profile; after the write commits, a push
// notification fans out to every device the recipient has registered.
type UMessage struct {
	Base

	ToUserID string `json:"to_user_id"`
	Message  string `json:"message"`
}

// UMessageType describes UMessage to the generic adapter.
var UMessageType = Descriptor{
	Kind:         KindUMessage,
	New:          func() Entity { return &UMessage{} },
	KeyAddressed: true,
	Schema:       umessageSchema,
}

func (m *UMessage) Kind() string { return KindUMessage }

func (m *UMessage) ID() string { return m.Base.Key }

func (m *UMessage) Link(includeID bool) string {
	if includeID {
		return "/user/" + m.ToUserID + "/message/" + m.Base.Key + "/"
	}
	return "/user/" + m.ToUserID + "/"
}

func (m *UMessage) Load(caller Identity, kv KV) error {
	toUserID, err := ValidateNotEmpty("to_user_id", kv.Get("to_user_id", ""))
	if err != nil {
		return err
	}

	m.ToUserID = toUserID
	m.Message = kv.Get("message", "debug-message")
	m.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (m *UMessage) Fields() map[string]any {
	fields := map[string]any{
		"to_user_id": m.ToUserID,
		"message":    m.Message,
	}
	m.metaFields(fields)
	return fields
}

func (m *UMessage) Schema() Schema { return umessageSchema }
