package mqtt

import "fmt"

// Topics builds Bohrium topic names under the configured prefix. Using
// these helpers keeps topic naming consistent between the notifier and
// any external consumer.
type Topics struct {
	// Prefix is the deployment's topic namespace, from
	// config.MQTT.TopicPrefix (default "bohrium").
	Prefix string
}

// Push returns the delivery topic for one device registration.
//
// Example: bohrium/push/reg-abc123
func (t Topics) Push(regID string) string {
	return fmt.Sprintf("%s/push/%s", t.Prefix, regID)
}

// AllPush returns a pattern matching every push delivery.
//
// Pattern: bohrium/push/+
func (t Topics) AllPush() string {
	return fmt.Sprintf("%s/push/+", t.Prefix)
}

// SystemStatus returns the server status topic, used for the online
// announcement and the Last Will offline message.
//
// Example: bohrium/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Prefix)
}
