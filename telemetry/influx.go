package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/safa0/radiantctl/config"
	"github.com/safa0/radiantctl/display"
)

const (
	measurement           = "display_state"
	defaultConnectTimeout = 10 * time.Second
)

// Logger is the logging surface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Influx writes display_state points through the non-blocking batched
// write API of InfluxDB v2.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	closed   atomic.Bool
}

// Connect pings the server and starts the batched writer. Async write
// errors are passed to logger.
func Connect(cfg config.InfluxDBConfig, logger Logger) (*Influx, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000))

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			if logger != nil {
				logger.Warn("telemetry write failed", "error", err)
			}
		}
	}()

	return &Influx{client: client, writeAPI: writeAPI}, nil
}

func (i *Influx) RecordState(displayID string, st display.State, status string) {
	if i.closed.Load() {
		return
	}
	i.writeAPI.WritePoint(statePoint(displayID, st, status))
}

// Close flushes pending points and closes the client.
func (i *Influx) Close() error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	i.writeAPI.Flush()
	i.client.Close()
	return nil
}

func statePoint(displayID string, st display.State, status string) *write.Point {
	fields := make(map[string]interface{}, len(st.Values)+2)
	for code, v := range st.Values {
		fields[code] = int64(v)
	}
	fields["token"] = st.Token
	fields["ready"] = st.Ready

	ts := st.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(measurement,
		map[string]string{
			"display_id": displayID,
			"status":     status,
		},
		fields, ts)
}
