package entity

var dmessageKeys = []string{
	"dev_id", "message",
	"user_id", "created", "modified", "revision", "key",
}

var dmessageSchema = NewSchema(dmessageKeys, 2,
	map[string]int{"message": 80}, map[string]int{"message": 5})

// DMessage is a message addressed to one device. It is created as a
// child of the target device and triggers a push notification to that
// device's registration after the write commits.
type DMessage struct {
	Base

	DevID   string `json:"dev_id"`
	Message string `json:"message"`
}

// DMessageType describes DMessage to the generic adapter.
var DMessageType = Descriptor{
	Kind:         KindDMessage,
	New:          func() Entity { return &DMessage{} },
	KeyAddressed: true,
	Schema:       dmessageSchema,
}

func (m *DMessage) Kind() string { return KindDMessage }

func (m *DMessage) ID() string { return m.Base.Key }

func (m *DMessage) Link(includeID bool) string {
	if includeID {
		return "/device/" + m.DevID + "/message/" + m.Base.Key + "/"
	}
	return "/device/" + m.DevID + "/"
}

func (m *DMessage) Load(caller Identity, kv KV) error {
	devID, err := ValidateDevID("dev_id", kv.Get("dev_id", ""))
	if err != nil {
		return err
	}

	m.DevID = devID
	m.Message = kv.Get("message", "debug-message")
	m.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (m *DMessage) Fields() map[string]any {
	fields := map[string]any{
		"dev_id":  m.DevID,
		"message": m.Message,
	}
	m.metaFields(fields)
	return fields
}

func (m *DMessage) Schema() Schema { return dmessageSchema }
