package entity

import "fmt"

var subscriptionKeys = []string{
	"topic", "dev_id", "pub_id",
	"user_id", "created", "modified", "revision", "key",
}

var subscriptionSchema = NewSchema(subscriptionKeys, 2, nil, nil)

// Subscription ties a device to a publication. Clients submit a topic;
// the wiring layer registers a Resolver that looks the publication up and
// injects its key as pub_id before Load runs, so this type never touches
// the store directly.
type Subscription struct {
	Base

	Topic string `json:"topic"`
	DevID string `json:"dev_id"`
	PubID string `json:"pub_id"`
}

// SubscriptionType describes Subscription to the generic adapter. The
// Resolve hook is assigned at wiring time.
var SubscriptionType = Descriptor{
	Kind:         KindSubscription,
	New:          func() Entity { return &Subscription{} },
	KeyAddressed: true,
	Schema:       subscriptionSchema,
}

func (s *Subscription) Kind() string { return KindSubscription }

func (s *Subscription) ID() string { return s.Base.Key }

func (s *Subscription) Link(includeID bool) string {
	if includeID {
		return "/subscription/" + s.ID() + "/"
	}
	return "/subscription/"
}

func (s *Subscription) Load(caller Identity, kv KV) error {
	topic, err := ValidateNotEmpty("topic", kv.Get("topic", ""))
	if err != nil {
		return err
	}
	devID, err := ValidateDevID("dev_id", kv.Get("dev_id", ""))
	if err != nil {
		return err
	}
	pubID := kv.Get("pub_id", "")
	if pubID == "" {
		return fmt.Errorf("%w: no publication for topic %q", ErrUnknownReference, topic)
	}

	s.Topic = topic
	s.DevID = devID
	s.PubID = pubID
	s.Base.UserID = HashUserID(caller.UserID)
	return nil
}

func (s *Subscription) Fields() map[string]any {
	fields := map[string]any{
		"topic":  s.Topic,
		"dev_id": s.DevID,
		"pub_id": s.PubID,
	}
	s.metaFields(fields)
	return fields
}

func (s *Subscription) Schema() Schema { return subscriptionSchema }
