// Package uplink forwards the node's retained attribute reports to an
// upstream collector over a pluggable transport. It supervises a single
// link, redialling with backoff when the link drops, and republishes every
// report as a self-describing JSON envelope.
package uplink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"envnode-go/bus"
	"envnode-go/types"
	"envnode-go/x/fmtx"
	"envnode-go/x/jsonx"
	"envnode-go/x/timex"
)

const serviceName = "uplink"

// Start runs the uplink service. It blocks until ctx is cancelled and
// (re)configures the link from "config/uplink".
func Start(ctx context.Context, conn *bus.Connection) {
	s := &Service{conn: conn}
	s.run(ctx)
}

type Service struct {
	conn *bus.Connection

	mu     sync.Mutex
	curRun context.CancelFunc

	// Identity learned from the retained node state.
	node   string
	bootID string
}

// envelope is the upstream wire format for one attribute report.
type envelope struct {
	Node      string `json:"node"`
	BootID    string `json:"boot_id"`
	Endpoint  int    `json:"endpoint"`
	Attribute string `json:"attribute"`
	Value     int32  `json:"value"`
	Version   uint32 `json:"version"`
	TS        int64  `json:"ts_ms"`
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", serviceName))
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			var cfg types.UplinkConfig
			if err := jsonx.Decode(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg types.UplinkConfig) {
	s.mu.Lock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	go s.runLink(ctx, cfg)
}

// runLink dials and supervises one link instance until ctx is cancelled.
func (s *Service) runLink(ctx context.Context, cfg types.UplinkConfig) {
	tr, err := newTransport(cfg.Transport)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		link, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", err)
			if !timex.Sleep(ctx, delay) {
				return
			}
			continue
		}

		s.publishState("up", "link_established", nil)
		err = s.forward(ctx, link)
		link.Close()
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "link_lost_retrying", err)
			if !timex.Sleep(ctx, delay) {
				return
			}
			continue
		}
		s.publishState("stopped", "link_closed", nil)
		return
	}
}

// forward republishes retained attribute reports until the link errors or
// ctx ends. The node/state subscription is taken first so identity is in
// the queue before any replayed report.
func (s *Service) forward(ctx context.Context, link Link) error {
	states := s.conn.Subscribe(bus.T("node", "state"))
	defer s.conn.Unsubscribe(states)
	reports := s.conn.Subscribe(bus.T("node", "ep", "+", "attr", "+", "value"))
	defer s.conn.Unsubscribe(reports)

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-states.Channel():
			if !ok {
				return bus.ErrSubscriptionClosed
			}
			s.noteState(m)
		case m, ok := <-reports.Channel():
			if !ok {
				return bus.ErrSubscriptionClosed
			}
			s.drainStates(states)
			if err := s.forwardReport(link, m); err != nil {
				return err
			}
		}
	}
}

func (s *Service) noteState(m *bus.Message) {
	if st, ok := m.Payload.(types.NodeState); ok {
		s.node, s.bootID = st.Node, st.BootID
	}
}

// drainStates applies any queued node state before a report is enveloped.
func (s *Service) drainStates(states *bus.Subscription) {
	for {
		select {
		case m, ok := <-states.Channel():
			if !ok {
				return
			}
			s.noteState(m)
		default:
			return
		}
	}
}

func (s *Service) forwardReport(link Link, m *bus.Message) error {
	// node/ep/<id>/attr/<name>/value
	if m.Topic.Len() < 6 {
		return nil
	}
	ep, okEp := m.Topic.At(2).(int)
	name, okName := m.Topic.At(4).(string)
	rep, okRep := m.Payload.(types.AttrReport)
	if !okEp || !okName || !okRep {
		return nil
	}

	payload, err := json.Marshal(envelope{
		Node:      s.node,
		BootID:    s.bootID,
		Endpoint:  ep,
		Attribute: name,
		Value:     rep.Value,
		Version:   rep.Version,
		TS:        rep.TS,
	})
	if err != nil {
		return err
	}
	return link.Publish("ep/"+fmtx.Utoa(uint32(ep))+"/attr/"+name, payload)
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T(serviceName, "state"), st, true))
}

// backoffSeq yields doubling delays from min up to max.
func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}
