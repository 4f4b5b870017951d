// Package sensor drives the node's measurement loop: sample an environment
// source on a fixed period, convert to the data model's fixed-point units
// and write both attributes. A failed write is logged with its status byte
// and the loop carries on; only source bring-up is fatal.
package sensor

import (
	"context"
	"time"

	"envnode-go/bus"
	"envnode-go/errcode"
	"envnode-go/types"
	"envnode-go/x/fmtx"
	"envnode-go/x/jsonx"
	"envnode-go/x/timex"
)

const serviceName = "sensor"

// Fallbacks when config omits a field.
const (
	defaultEndpoint = 1
	defaultPeriodMs = 10000
)

// AttributeSetter writes fixed-point values into the data model.
type AttributeSetter interface {
	SetTemperature(ctx context.Context, endpoint int, v int16) types.Status
	SetHumidity(ctx context.Context, endpoint int, v uint16) types.Status
}

type Service struct {
	conn *bus.Connection
	set  AttributeSetter
	src  Source
}

func New(conn *bus.Connection, set AttributeSetter) *Service {
	return &Service{conn: conn, set: set}
}

// Run blocks until ctx is cancelled, returning ctx.Err then. Missing or
// broken configuration and source bring-up failures are fatal and return an
// error; per-cycle failures are logged and the cadence kept.
func (s *Service) Run(ctx context.Context) error {
	cfg, err := s.awaitConfig(ctx)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		s.pubState("error", "", err.Error())
		return err
	}
	if err := src.Init(ctx); err != nil {
		s.pubState("error", "", err.Error())
		return err
	}
	s.src = src

	s.pubState("running", "sampling", "")
	println("[sensor] source up:", sourceName(cfg), "endpoint", fmtx.Utoa(uint32(cfg.Endpoint)), "period", fmtx.Utoa(cfg.PeriodMs)+"ms")

	// Let the rest of the node settle before the first sample.
	if !timex.Sleep(ctx, time.Duration(cfg.StartDelayMs)*time.Millisecond) {
		return ctx.Err()
	}

	ticker := time.NewTicker(time.Duration(cfg.PeriodMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		s.cycle(ctx, cfg.Endpoint)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// cycle takes one reading and writes both attributes. Write order is fixed:
// temperature, then humidity; a non-success on one never blocks the other.
func (s *Service) cycle(ctx context.Context, endpoint int) {
	r, err := s.src.Sample(ctx)
	if err != nil {
		println("[sensor] sample failed:", err.Error())
		return
	}

	tempValue := TempX100(r.TempC)
	humValue := HumX100(r.HumidityRH)

	if st := s.set.SetTemperature(ctx, endpoint, tempValue); !st.OK() {
		println("[sensor] temperature update failed:", fmtx.Hex8(byte(st)))
	} else {
		println("[sensor] temperature", fmtx.X100(int32(tempValue)), "C")
	}
	if st := s.set.SetHumidity(ctx, endpoint, humValue); !st.OK() {
		println("[sensor] humidity update failed:", fmtx.Hex8(byte(st)))
	} else {
		println("[sensor] humidity", fmtx.X100(int32(humValue)), "%")
	}
}

// awaitConfig blocks on the retained sensor config.
func (s *Service) awaitConfig(ctx context.Context) (types.SensorConfig, error) {
	var cfg types.SensorConfig
	sub := s.conn.Subscribe(bus.T("config", serviceName))
	defer s.conn.Unsubscribe(sub)

	s.pubState("idle", "awaiting_config", "")
	select {
	case m := <-sub.Channel():
		if err := jsonx.Decode(m.Payload, &cfg); err != nil {
			s.pubState("error", "", err.Error())
			return cfg, &errcode.E{C: errcode.InvalidParams, Op: serviceName, Msg: err.Error(), Err: err}
		}
	case <-ctx.Done():
		return cfg, ctx.Err()
	}

	if cfg.Endpoint == 0 {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.PeriodMs == 0 {
		cfg.PeriodMs = defaultPeriodMs
	}
	return cfg, nil
}

func (s *Service) pubState(level, status, errText string) {
	s.conn.Publish(s.conn.NewMessage(
		bus.T(serviceName, "state"),
		types.ServiceState{Level: level, Status: status, Error: errText, TS: timex.NowMs()},
		true,
	))
}

func sourceName(cfg types.SensorConfig) string {
	if cfg.Source == "" {
		return "virtual"
	}
	return cfg.Source
}
