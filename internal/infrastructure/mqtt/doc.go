// Package mqtt provides MQTT client connectivity for Bohrium Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Push-payload publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Bohrium uses MQTT as the outbound delivery bus for push notifications.
// When a message entity is committed, the notifier publishes one payload
// per device registration under <prefix>/push/<reg_id>; downstream
// delivery bridges subscribe to that namespace and forward payloads to
// the platform push services.
//
//	Bohrium Core → MQTT Broker → Delivery Bridges → Devices
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Push payloads carry the delivery API key; restrict the push
//     namespace with broker ACLs
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}.Push("reg-abc")
//	err = client.Publish(topic, payload, byte(cfg.MQTT.QoS), false)
package mqtt
