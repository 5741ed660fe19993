package entity

// Device field declaration. The first five keys are writable; the rest
// are store-managed.
var deviceKeys = []string{
	"name", "resource", "type", "dev_id", "reg_id",
	"user_id", "created", "modified", "revision", "key",
}

var deviceSchema = NewSchema(deviceKeys, 5, nil, nil)

// Load defaults for absent writable fields.
const (
	defaultDevID    = "0123456789abcdef"
	defaultRegID    = "0123abcd"
	defaultResource = "debug-resource"
	defaultDevType  = "debug-type"
)

// Device is a push-notification endpoint registered by a user. The
// natural identifier is the hardware id (dev_id); reg_id is the
// transport-level registration token notifications are delivered to.
type Device struct {
	Base

	Name     string `json:"name"`
	Resource string `json:"resource"`
	Type     string `json:"type"`
	DevID    string `json:"dev_id"`
	RegID    string `json:"reg_id"`
}

// DeviceType describes Device to the generic adapter.
var DeviceType = Descriptor{
	Kind:   KindDevice,
	New:    func() Entity { return &Device{} },
	Schema: deviceSchema,
}

func (d *Device) Kind() string { return KindDevice }

func (d *Device) ID() string { return d.DevID }

func (d *Device) Link(includeID bool) string {
	if includeID {
		return "/device/" + d.DevID + "/"
	}
	return "/device/"
}

func (d *Device) Load(caller Identity, kv KV) error {
	name, err := ValidateNotEmpty("name", kv.Get("name", caller.Nickname))
	if err != nil {
		return err
	}
	devID, err := ValidateDevID("dev_id", kv.Get("dev_id", defaultDevID))
	if err != nil {
		return err
	}
	regID, err := ValidateRegID("reg_id", kv.Get("reg_id", defaultRegID))
	if err != nil {
		return err
	}

	d.Name = name
	d.DevID = devID
	d.RegID = regID
	d.Resource = kv.Get("resource", defaultResource)
	d.Type = kv.Get("type", defaultDevType)
	d.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (d *Device) Fields() map[string]any {
	fields := map[string]any{
		"name":     d.Name,
		"resource": d.Resource,
		"type":     d.Type,
		"dev_id":   d.DevID,
		"reg_id":   d.RegID,
	}
	d.metaFields(fields)
	return fields
}

func (d *Device) Schema() Schema { return deviceSchema }
