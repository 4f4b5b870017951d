package config

import (
	"context"
	"encoding/json"
	"errors"

	"envnode-go/bus"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxNodeKey   = "node" // context key carrying the node ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(node string) ([]byte, bool) {
	b, ok := embeddedConfigs[node]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the node config from embedded data and publishes each
// top-level key as a retained message on "config/<key>". Values stay raw
// JSON; services decode their own section.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	node, _ := ctx.Value(CtxNodeKey).(string)
	if node == "" {
		return errors.New("missing node ID in context")
	}

	raw, ok := EmbeddedConfigLookup(node)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for node: " + node)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	for k, v := range sections {
		msg := &bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  []byte(v),
			Retained: true,
		}
		conn.Publish(msg)
	}

	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
