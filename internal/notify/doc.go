// Package notify implements the push-notification fan-out that runs
// after a message entity is committed. Each notifier method resolves the
// target registration ids for one message kind and publishes one push
// payload per registration over the message bus.
//
// Delivery is fire and forget relative to the HTTP write: failures are
// reported to the caller for logging but the committed message is never
// rolled back.
package notify
