// Package influxdb provides the optional mutation audit trail for
// Bohrium Core.
//
// When enabled, every committed entity mutation (create, update,
// delete) is recorded as one point in the configured bucket, tagged by
// entity kind and operation. Writes are batched and asynchronous; the
// audit trail never blocks or fails a request.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // Disabled or unreachable; run without the audit trail.
//	}
//	defer client.Close()
//
// The client satisfies the adapter's Recorder interface via
// RecordMutation.
package influxdb
