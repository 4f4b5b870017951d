// Package stack is the node's device data model: endpoints and bounded
// attributes declared by config, written through set-requests, persisted as
// retained attribute reports on the bus.
package stack

import (
	"context"

	"envnode-go/bus"
	"envnode-go/errcode"
	"envnode-go/types"
	"envnode-go/x/jsonx"
	"envnode-go/x/timex"

	"github.com/google/uuid"
)

type Service struct {
	conn *bus.Connection
	reg  *registry

	node   string
	bootID string
	ready  bool
}

func New(conn *bus.Connection) *Service {
	return &Service{
		conn:   conn,
		reg:    newRegistry(),
		bootID: uuid.NewString(),
	}
}

// BootID identifies this run of the node. It is minted once at construction
// and carried on node/state.
func (s *Service) BootID() string { return s.bootID }

// Run blocks until ctx is cancelled. Set-requests are rejected with Busy
// until the first configuration arrives.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigStack())
	setSub := s.conn.Subscribe(setWildcard())
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(setSub)

	s.pubNodeState("idle", "awaiting_config")

	for {
		select {
		case <-ctx.Done():
			s.pubNodeState("stopped", "context_cancelled")
			return
		case msg := <-cfgSub.Channel():
			var cfg types.StackConfig
			if err := jsonx.Decode(msg.Payload, &cfg); err != nil {
				println("[stack] config decode failed:", err.Error())
				continue
			}
			s.apply(cfg)
			if !s.ready {
				s.ready = true
				s.pubNodeState("ready", "")
			}
		case m := <-setSub.Channel():
			if !s.ready {
				s.replyStatus(m, types.StatusBusy, errcode.StackNotReady)
				continue
			}
			s.handleSet(m)
		}
	}
}

func (s *Service) apply(cfg types.StackConfig) {
	if cfg.Node != "" {
		s.node = cfg.Node
	}
	s.reg.apply(cfg)
}

// handleSet services one write request. Validation order: endpoint,
// attribute, payload shape, bounds.
func (s *Service) handleSet(msg *bus.Message) {
	// node/ep/<id>/attr/<name>/set
	if msg.Topic.Len() < 6 {
		s.replyStatus(msg, types.StatusFailure, errcode.InvalidTopic)
		return
	}
	epID, okEp := msg.Topic.At(2).(int)
	name, okName := msg.Topic.At(4).(string)
	if !okEp || !okName {
		s.replyStatus(msg, types.StatusFailure, errcode.InvalidTopic)
		return
	}

	if st := s.reg.find(epID, name); !st.OK() {
		s.replyStatus(msg, st, codeFor(st))
		return
	}

	w, code := decodeWrite(msg.Payload)
	if code != "" {
		s.replyStatus(msg, types.StatusInvalidDataType, code)
		return
	}

	st, version := s.reg.set(epID, name, w.Value)
	if !st.OK() {
		s.replyStatus(msg, st, codeFor(st))
		return
	}

	s.conn.Publish(s.conn.NewMessage(
		attrValue(epID, name),
		types.AttrReport{Value: w.Value, Version: version, TS: timex.NowMs()},
		true,
	))
	if msg.CanReply() {
		s.conn.Reply(msg, types.SetReply{Status: types.StatusSuccess, Version: version}, false)
	}
}

// decodeWrite asserts or decodes the set-request payload. In-process
// callers publish the typed struct; anything else must be JSON.
func decodeWrite(v any) (types.AttrWrite, errcode.Code) {
	switch x := v.(type) {
	case types.AttrWrite:
		return x, ""
	case *types.AttrWrite:
		if x == nil {
			return types.AttrWrite{}, errcode.InvalidPayload
		}
		return *x, ""
	case nil:
		return types.AttrWrite{}, errcode.InvalidPayload
	default:
		var w types.AttrWrite
		if err := jsonx.Decode(v, &w); err != nil {
			return types.AttrWrite{}, errcode.InvalidPayload
		}
		return w, ""
	}
}

func codeFor(st types.Status) errcode.Code {
	switch st {
	case types.StatusUnsupportedEndpoint:
		return errcode.UnknownEndpoint
	case types.StatusUnsupportedAttribute:
		return errcode.UnknownAttribute
	case types.StatusConstraintError:
		return errcode.OutOfRange
	case types.StatusInvalidDataType:
		return errcode.InvalidPayload
	case types.StatusBusy:
		return errcode.Busy
	default:
		return errcode.Error
	}
}

func (s *Service) replyStatus(m *bus.Message, st types.Status, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	s.conn.Reply(m, types.SetReply{Status: st, Error: string(code)}, false)
}

func (s *Service) pubNodeState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		topicNodeState(),
		types.NodeState{Level: level, Status: status, Node: s.node, BootID: s.bootID, TS: timex.NowMs()},
		true,
	))
}
