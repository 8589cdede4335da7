package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dbw/core/metrics"
	"github.com/kilianp07/dbw/infra/logger"
)

// InfluxSink writes control loop events to an InfluxDB instance. Points go
// through the client's non-blocking write API: a slow or unreachable
// instance never stalls the caller, and write failures surface on the error
// channel as log lines.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	s := &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
		log:      logger.New("influx-sink"),
	}
	go func() {
		for err := range s.writeAPI.Errors() {
			s.log.Errorf("influx write: %v", err)
		}
	}()
	return s
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) RecordTick(outcome coremetrics.TickOutcome, d time.Duration) error {
	p := write.NewPointWithMeasurement("dbw_tick").
		AddTag("outcome", string(outcome)).
		AddField("duration_us", float64(d.Microseconds())).
		SetTime(time.Now())
	s.writeAPI.WritePoint(p)
	return nil
}

func (s *InfluxSink) RecordPublish(channel string, ok bool) error {
	p := write.NewPointWithMeasurement("dbw_actuator_publish").
		AddTag("channel", channel).
		AddTag("ok", strconv.FormatBool(ok)).
		AddField("count", 1).
		SetTime(time.Now())
	s.writeAPI.WritePoint(p)
	return nil
}

func (s *InfluxSink) RecordReset() error {
	p := write.NewPointWithMeasurement("dbw_controller_reset").
		AddField("count", 1).
		SetTime(time.Now())
	s.writeAPI.WritePoint(p)
	return nil
}

// Close flushes buffered points and releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}
