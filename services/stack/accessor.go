package stack

import (
	"context"
	"time"

	"envnode-go/bus"
	"envnode-go/types"
)

const defaultSetTimeout = 250 * time.Millisecond

// Accessor is the typed client for attribute writes, keyed by endpoint id.
// Every method returns an interaction status byte and never an error: a
// write that cannot be serviced in time comes back Busy.
type Accessor struct {
	conn    *bus.Connection
	timeout time.Duration
}

func NewAccessor(conn *bus.Connection) *Accessor {
	return &Accessor{conn: conn, timeout: defaultSetTimeout}
}

// SetTemperature writes hundredths of degrees Celsius.
func (a *Accessor) SetTemperature(ctx context.Context, ep int, v int16) types.Status {
	return a.set(ctx, ep, types.AttrTemperature, int32(v))
}

// SetHumidity writes hundredths of percent relative humidity.
func (a *Accessor) SetHumidity(ctx context.Context, ep int, v uint16) types.Status {
	return a.set(ctx, ep, types.AttrHumidity, int32(v))
}

func (a *Accessor) set(ctx context.Context, ep int, attr types.Attr, v int32) types.Status {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := a.conn.NewMessage(attrSet(ep, string(attr)), types.AttrWrite{Value: v}, false)
	reply, err := a.conn.RequestWait(ctx, req)
	if err != nil {
		return types.StatusBusy
	}
	r, ok := reply.Payload.(types.SetReply)
	if !ok {
		return types.StatusFailure
	}
	return r.Status
}
