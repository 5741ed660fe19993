package entity

var configKeys = []string{
	"name", "gcm_api_key",
	"user_id", "created", "modified", "revision", "key",
}

var configSchema = NewSchema(configKeys, 2, nil, nil)

// ActiveConfigName is the natural id of the configuration record the
// notifier reads its delivery credentials from.
const ActiveConfigName = "active"

// Config is a named server-side configuration record. The record named
// "active" carries the push-delivery API key handed to the downstream
// notification bridge.
type Config struct {
	Base

	Name      string `json:"name"`
	GCMAPIKey string `json:"gcm_api_key"`
}

// ConfigType describes Config to the generic adapter.
var ConfigType = Descriptor{
	Kind:   KindConfig,
	New:    func() Entity { return &Config{} },
	Schema: configSchema,
}

func (c *Config) Kind() string { return KindConfig }

func (c *Config) ID() string { return c.Name }

func (c *Config) Link(includeID bool) string {
	if includeID {
		return "/config/" + c.Name + "/"
	}
	return "/config/"
}

func (c *Config) Load(caller Identity, kv KV) error {
	name, err := ValidateConfigID("name", kv.Get("name", "default"))
	if err != nil {
		return err
	}

	c.Name = name
	c.GCMAPIKey = kv.Get("gcm_api_key", "")
	c.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (c *Config) Fields() map[string]any {
	fields := map[string]any{
		"name":        c.Name,
		"gcm_api_key": c.GCMAPIKey,
	}
	c.metaFields(fields)
	return fields
}

func (c *Config) Schema() Schema { return configSchema }
