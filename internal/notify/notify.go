package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/logging"
	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/mqtt"
	"github.com/bohrium-dev/bohrium-core/internal/store"
)

// Publisher sends one payload to a topic. Satisfied by the mqtt client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// pushPayload is the wire envelope delivered per registration id.
type pushPayload struct {
	RegID   string `json:"reg_id"`
	Message string `json:"message"`
	Source  string `json:"source"`
	APIKey  string `json:"api_key,omitempty"`
}

// Notifier fans message entities out to device registrations.
type Notifier struct {
	store  store.Store
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger *logging.Logger
}

// New creates a Notifier publishing under the given topic prefix.
func New(st store.Store, pub Publisher, prefix string, qos byte, logger *logging.Logger) *Notifier {
	return &Notifier{
		store:  st,
		pub:    pub,
		topics: mqtt.Topics{Prefix: prefix},
		qos:    qos,
		logger: logger.With("component", "notify"),
	}
}

// PushTopic returns the delivery topic for one registration id.
func (n *Notifier) PushTopic(regID string) string {
	return n.topics.Push(regID)
}

// DeviceMessage delivers a device message to its parent device's
// registration. Shaped as an adapter post-create hook.
func (n *Notifier) DeviceMessage(ctx context.Context, parent, child entity.Entity) error {
	device, ok := parent.(*entity.Device)
	if !ok {
		return fmt.Errorf("notify: unexpected parent type %T", parent)
	}
	msg, ok := child.(*entity.DMessage)
	if !ok {
		return fmt.Errorf("notify: unexpected child type %T", child)
	}

	return n.push(ctx, msg.Link(true), msg.Message, []string{device.RegID})
}

// PublicationMessage delivers a publication message to every device
// subscribed to the parent publication.
func (n *Notifier) PublicationMessage(ctx context.Context, parent, child entity.Entity) error {
	pub, ok := parent.(*entity.Publication)
	if !ok {
		return fmt.Errorf("notify: unexpected parent type %T", parent)
	}
	msg, ok := child.(*entity.PMessage)
	if !ok {
		return fmt.Errorf("notify: unexpected child type %T", child)
	}

	subKeys, err := n.store.KeysByField(ctx, entity.KindSubscription, "pub_id", pub.ID())
	if err != nil {
		return fmt.Errorf("resolving subscriptions: %w", err)
	}

	var regIDs []string
	for _, key := range subKeys {
		rec, err := n.store.Get(ctx, entity.KindSubscription, key)
		if err != nil {
			return fmt.Errorf("fetching subscription: %w", err)
		}
		var sub entity.Subscription
		if err := json.Unmarshal(rec.Data, &sub); err != nil {
			return fmt.Errorf("decoding subscription: %w", err)
		}

		ids, err := n.deviceRegIDs(ctx, sub.DevID)
		if err != nil {
			return err
		}
		regIDs = append(regIDs, ids...)
	}

	return n.push(ctx, msg.Link(true), msg.Message, regIDs)
}

// UserMessage delivers a user message to every device the recipient has
// registered.
func (n *Notifier) UserMessage(ctx context.Context, parent, child entity.Entity) error {
	user, ok := parent.(*entity.User)
	if !ok {
		return fmt.Errorf("notify: unexpected parent type %T", parent)
	}
	msg, ok := child.(*entity.UMessage)
	if !ok {
		return fmt.Errorf("notify: unexpected child type %T", child)
	}

	keys, err := n.store.KeysByUserID(ctx, entity.KindDevice, user.ID())
	if err != nil {
		return fmt.Errorf("resolving user devices: %w", err)
	}

	var regIDs []string
	for _, key := range keys {
		rec, err := n.store.Get(ctx, entity.KindDevice, key)
		if err != nil {
			return fmt.Errorf("fetching device: %w", err)
		}
		var device entity.Device
		if err := json.Unmarshal(rec.Data, &device); err != nil {
			return fmt.Errorf("decoding device: %w", err)
		}
		regIDs = append(regIDs, device.RegID)
	}

	return n.push(ctx, msg.Link(true), msg.Message, regIDs)
}

// deviceRegIDs resolves a device natural id to its registration ids.
// Duplicate hardware ids each get a delivery.
func (n *Notifier) deviceRegIDs(ctx context.Context, devID string) ([]string, error) {
	keys, err := n.store.KeysByNaturalID(ctx, entity.KindDevice, devID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", devID, err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		rec, err := n.store.Get(ctx, entity.KindDevice, key)
		if err != nil {
			return nil, fmt.Errorf("fetching device: %w", err)
		}
		var device entity.Device
		if err := json.Unmarshal(rec.Data, &device); err != nil {
			return nil, fmt.Errorf("decoding device: %w", err)
		}
		ids = append(ids, device.RegID)
	}
	return ids, nil
}

// push publishes one payload per registration id. All deliveries are
// attempted; failures are joined.
func (n *Notifier) push(ctx context.Context, source, message string, regIDs []string) error {
	if len(regIDs) == 0 {
		n.logger.Debug("no registrations to notify", "source", source)
		return nil
	}

	apiKey, err := n.activeAPIKey(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, regID := range regIDs {
		payload, err := json.Marshal(pushPayload{
			RegID:   regID,
			Message: message,
			Source:  source,
			APIKey:  apiKey,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("encoding push payload: %w", err))
			continue
		}

		if err := n.pub.Publish(n.PushTopic(regID), payload, n.qos, false); err != nil {
			errs = append(errs, fmt.Errorf("publishing to %q: %w", regID, err))
			continue
		}
		n.logger.Debug("push published", "reg_id", regID, "source", source)
	}
	return errors.Join(errs...)
}

// activeAPIKey reads the delivery credential from the configuration
// record named "active". A missing record is not an error; pushes then
// carry no credential.
func (n *Notifier) activeAPIKey(ctx context.Context) (string, error) {
	keys, err := n.store.KeysByNaturalID(ctx, entity.KindConfig, entity.ActiveConfigName)
	if err != nil {
		return "", fmt.Errorf("resolving active config: %w", err)
	}
	if len(keys) == 0 {
		return "", nil
	}

	rec, err := n.store.Get(ctx, entity.KindConfig, keys[0])
	if err != nil {
		return "", fmt.Errorf("fetching active config: %w", err)
	}

	var cfg entity.Config
	if err := json.Unmarshal(rec.Data, &cfg); err != nil {
		return "", fmt.Errorf("decoding active config: %w", err)
	}
	return cfg.GCMAPIKey, nil
}
