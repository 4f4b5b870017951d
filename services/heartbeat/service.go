// Package heartbeat publishes a retained liveness beacon on
// "node/heartbeat" so uplinked collectors and local tools can tell a quiet
// node from a dead one.
package heartbeat

import (
	"context"
	"time"

	"envnode-go/bus"
	"envnode-go/types"
	"envnode-go/x/jsonx"
	"envnode-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHeartbeat       = bus.T("node", "heartbeat")
)

const defaultInterval = 2 * time.Second

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	var seq uint32
	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicHeartbeat, types.HeartbeatValue{
				Seq:      seq,
				UptimeMs: timex.UptimeMs(),
				TS:       timex.NowMs(),
			}, true))
		case msg := <-cfgSub.Channel():
			var cfg types.HeartbeatConfig
			if err := jsonx.Decode(msg.Payload, &cfg); err != nil {
				println("[heartbeat] bad config:", err.Error())
				continue
			}
			if cfg.IntervalMs > 0 {
				tick.Reset(time.Duration(cfg.IntervalMs) * time.Millisecond)
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
