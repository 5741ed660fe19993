package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordMutation writes one audit point for a committed entity
// mutation, tagged by kind and operation with the id and resulting
// revision as fields. The write is batched and asynchronous, so the
// adapter can call this from the request path; a disconnected client
// drops the point silently.
func (c *Client) RecordMutation(_ context.Context, kind, op, id string, revision int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		c.measurement(),
		map[string]string{
			"kind": kind,
			"op":   op,
		},
		map[string]interface{}{
			"id":       id,
			"revision": revision,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// measurement returns the configured audit measurement name.
func (c *Client) measurement() string {
	if c.cfg.Measurement != "" {
		return c.cfg.Measurement
	}
	return "entity_mutations"
}
