package stack

import (
	"context"
	"testing"
	"time"

	"envnode-go/bus"
	"envnode-go/types"
)

// startStack runs a configured stack service on a fresh bus and blocks until
// it reports ready.
func startStack(t *testing.T) (*bus.Bus, *bus.Connection) {
	t.Helper()
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := New(b.NewConnection("stack"))
	go svc.Run(ctx)

	client := b.NewConnection("test")
	client.Publish(client.NewMessage(bus.T("config", "stack"), testStackConfig(), true))
	waitNodeState(t, client, "ready")
	return b, client
}

func waitNodeState(t *testing.T, conn *bus.Connection, level string) types.NodeState {
	t.Helper()
	sub := conn.Subscribe(bus.T("node", "state"))
	defer conn.Unsubscribe(sub)

	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.NodeState); ok && st.Level == level {
				return st
			}
		case <-deadline:
			t.Fatalf("timeout waiting for node state %q", level)
		}
	}
}

func requestSet(t *testing.T, conn *bus.Connection, topic bus.Topic, payload any) types.SetReply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := conn.RequestWait(ctx, conn.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("set request on %v: %v", topic, err)
	}
	r, ok := reply.Payload.(types.SetReply)
	if !ok {
		t.Fatalf("unexpected reply payload: %#v", reply.Payload)
	}
	return r
}

func TestStack_SetPublishesRetainedReport(t *testing.T) {
	_, client := startStack(t)

	r := requestSet(t, client, bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: 2512})
	if r.Status != types.StatusSuccess {
		t.Fatalf("set status = %#x (%s)", r.Status, r.Error)
	}
	if r.Version != 1 {
		t.Fatalf("version = %d, want 1", r.Version)
	}

	// Late subscriber still sees the value: the report is retained.
	sub := client.Subscribe(bus.T("node", "ep", 1, "attr", "temperature", "value"))
	defer client.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		rep, ok := m.Payload.(types.AttrReport)
		if !ok {
			t.Fatalf("report payload type %T", m.Payload)
		}
		if rep.Value != 2512 || rep.Version != 1 {
			t.Fatalf("report = %+v", rep)
		}
		if !m.Retained {
			t.Fatal("attribute report not retained")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for retained report")
	}
}

func TestStack_VersionBumpsAcrossWrites(t *testing.T) {
	_, client := startStack(t)

	r1 := requestSet(t, client, bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: 2500})
	r2 := requestSet(t, client, bus.T("node", "ep", 1, "attr", "humidity", "set"), types.AttrWrite{Value: 5000})
	r3 := requestSet(t, client, bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: 2510})
	if r1.Version != 1 || r2.Version != 2 || r3.Version != 3 {
		t.Fatalf("versions = %d,%d,%d", r1.Version, r2.Version, r3.Version)
	}
}

func TestStack_StatusCodes(t *testing.T) {
	_, client := startStack(t)

	type C struct {
		name    string
		topic   bus.Topic
		payload any
		want    types.Status
	}
	for _, c := range []C{
		{"unknown endpoint", bus.T("node", "ep", 9, "attr", "temperature", "set"), types.AttrWrite{Value: 2500}, types.StatusUnsupportedEndpoint},
		{"unknown attribute", bus.T("node", "ep", 1, "attr", "pressure", "set"), types.AttrWrite{Value: 2500}, types.StatusUnsupportedAttribute},
		{"above max", bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: 12501}, types.StatusConstraintError},
		{"below min", bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: -4001}, types.StatusConstraintError},
		{"wrong payload type", bus.T("node", "ep", 1, "attr", "temperature", "set"), "hot", types.StatusInvalidDataType},
	} {
		if r := requestSet(t, client, c.topic, c.payload); r.Status != c.want {
			t.Fatalf("%s: status = %#x, want %#x (err=%s)", c.name, r.Status, c.want, r.Error)
		}
	}
}

func TestStack_BusyBeforeConfig(t *testing.T) {
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := New(b.NewConnection("stack"))
	go svc.Run(ctx)

	client := b.NewConnection("test")
	waitNodeState(t, client, "idle")

	r := requestSet(t, client, bus.T("node", "ep", 1, "attr", "temperature", "set"), types.AttrWrite{Value: 2500})
	if r.Status != types.StatusBusy {
		t.Fatalf("pre-config status = %#x, want busy", r.Status)
	}
}

func TestStack_FireAndForgetStillStores(t *testing.T) {
	_, client := startStack(t)

	// No ReplyTo: plain publish.
	client.Publish(client.NewMessage(bus.T("node", "ep", 1, "attr", "humidity", "set"), types.AttrWrite{Value: 4200}, false))

	sub := client.Subscribe(bus.T("node", "ep", 1, "attr", "humidity", "value"))
	defer client.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		rep := m.Payload.(types.AttrReport)
		if rep.Value != 4200 {
			t.Fatalf("report = %+v", rep)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for report after fire-and-forget set")
	}
}

func TestStack_NodeStateCarriesBootID(t *testing.T) {
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := New(b.NewConnection("stack"))
	go svc.Run(ctx)

	client := b.NewConnection("test")
	client.Publish(client.NewMessage(bus.T("config", "stack"), testStackConfig(), true))

	st := waitNodeState(t, client, "ready")
	if st.BootID == "" || st.BootID != svc.BootID() {
		t.Fatalf("node state boot id = %q, want %q", st.BootID, svc.BootID())
	}
	if st.Node != "test-node" {
		t.Fatalf("node state node = %q", st.Node)
	}
}

// -----------------------------------------------------------------------------
// Accessor
// -----------------------------------------------------------------------------

func TestAccessor_TypedWrites(t *testing.T) {
	b, client := startStack(t)

	acc := NewAccessor(b.NewConnection("accessor"))
	ctx := context.Background()

	if st := acc.SetTemperature(ctx, 1, 2512); st != types.StatusSuccess {
		t.Fatalf("SetTemperature status = %#x", st)
	}
	if st := acc.SetHumidity(ctx, 1, 5034); st != types.StatusSuccess {
		t.Fatalf("SetHumidity status = %#x", st)
	}

	sub := client.Subscribe(bus.T("node", "ep", 1, "attr", "+", "value"))
	defer client.Unsubscribe(sub)
	got := map[string]int32{}
	deadline := time.Now().Add(time.Second)
	for len(got) < 2 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			name := m.Topic.At(4).(string)
			got[name] = m.Payload.(types.AttrReport).Value
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got["temperature"] != 2512 || got["humidity"] != 5034 {
		t.Fatalf("reports = %v", got)
	}
}

func TestAccessor_NegativeTemperature(t *testing.T) {
	b, _ := startStack(t)

	acc := NewAccessor(b.NewConnection("accessor"))
	if st := acc.SetTemperature(context.Background(), 1, -312); st != types.StatusSuccess {
		t.Fatalf("negative write status = %#x", st)
	}
}

func TestAccessor_StatusPassthrough(t *testing.T) {
	b, _ := startStack(t)

	acc := NewAccessor(b.NewConnection("accessor"))
	if st := acc.SetTemperature(context.Background(), 9, 2500); st != types.StatusUnsupportedEndpoint {
		t.Fatalf("unknown endpoint through accessor = %#x", st)
	}
}

func TestAccessor_BusyWhenNobodyAnswers(t *testing.T) {
	b := bus.NewBus(4)

	acc := NewAccessor(b.NewConnection("accessor"))
	acc.timeout = 50 * time.Millisecond

	start := time.Now()
	if st := acc.SetTemperature(context.Background(), 1, 2500); st != types.StatusBusy {
		t.Fatalf("status without stack = %#x, want busy", st)
	}
	if time.Since(start) > time.Second {
		t.Fatal("accessor did not honour its timeout")
	}
}
