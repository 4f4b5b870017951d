package uplink

import (
	"context"
	"sync"

	"envnode-go/errcode"
	"envnode-go/types"
)

// Link is an open upstream connection. Publish topics are relative
// ("ep/1/attr/temperature"); transports that route by topic prepend their
// own prefix, stream transports may drop it since the envelope is
// self-describing.
type Link interface {
	Publish(topic string, payload []byte) error
	Close() error
}

// Transport dials Links. Open may block; honour ctx.
type Transport interface {
	Open(ctx context.Context) (Link, error)
	String() string
}

type transportFactory func(types.TransportConfig) (Transport, error)

var (
	regMu    sync.RWMutex
	registry = map[string]transportFactory{}
)

// RegisterTransport adds a named transport. Platform files register "mqtt"
// and "serial" from init; tests register their own.
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg types.TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownTransport, Op: "uplink", Msg: cfg.Type}
	}
	return f(cfg)
}
