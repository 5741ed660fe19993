package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestRecordMutationDisconnected(t *testing.T) {
	// A disconnected client must drop points without panicking.
	client := &Client{}
	client.RecordMutation(context.Background(), "device", "create", "aa01", 0)
}

func TestFlushDisconnected(t *testing.T) {
	client := &Client{}
	client.Flush()
}
