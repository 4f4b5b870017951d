// bus/cmd/selftest/main.go

// On-device bus self-test. go test covers the same ground on hosted builds;
// this binary is for boards where the test runner cannot run. The status
// LED ends solid on success and blinking on failure.
package main

import (
	"context"
	"time"

	"envnode-go/board"
	"envnode-go/bus"
)

// --- tiny logger (avoid fmt on MCU) ------------------------------------------

func logln(s string) { println(s) }

// itoa formats a decimal without pulling strconv into the image.
func itoa(n int) string {
	var buf [24]byte
	i := len(buf)
	u := uint(n)
	if n < 0 {
		u = uint(-n)
	}
	for {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
		if u == 0 {
			break
		}
	}
	if n < 0 {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// --- assertion helpers --------------------------------------------------------

// wantNext reports whether the next message on sub carries the want payload.
func wantNext(sub *bus.Subscription, want string, timeout time.Duration) (ok bool, why string) {
	select {
	case got := <-sub.Channel():
		if s, ok := got.Payload.(string); !ok || s != want {
			return false, "unexpected payload"
		}
		return true, ""
	case <-time.After(timeout):
		return false, "timeout"
	}
}

// wantQuiet reports whether sub stays silent for the settle window.
func wantQuiet(sub *bus.Subscription, timeout time.Duration) (ok bool, why string) {
	select {
	case <-sub.Channel():
		return false, "unexpected message"
	case <-time.After(timeout):
		return true, ""
	}
}

// drainN collects exactly n string payloads from sub before the deadline.
func drainN(sub *bus.Subscription, n int, deadline time.Time) ([]string, bool, string) {
	out := make([]string, 0, n)
	for len(out) < n {
		wait := time.Until(deadline)
		if wait <= 0 {
			return out, false, "drain count mismatch"
		}
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				return nil, false, "non-string payload"
			}
			out = append(out, s)
		case <-time.After(wait):
			return out, false, "drain count mismatch"
		}
	}
	return out, true, ""
}

// sameSet compares got and want ignoring order.
func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	left := make(map[string]int, len(want))
	for _, w := range want {
		left[w]++
	}
	for _, g := range got {
		if left[g] == 0 {
			return false
		}
		left[g]--
	}
	return true
}

// --- individual tests (return bool pass/fail) --------------------------------

func TestBasicPubSub() bool {
	bb := bus.NewBus(4)
	conn := bb.NewConnection("test")
	sub := conn.Subscribe(bus.T("config", "sensor"))

	msg := conn.NewMessage(bus.T("config", "sensor"), "hello", false)
	conn.Publish(msg)

	ok, why := wantNext(sub, "hello", 100*time.Millisecond)
	if !ok {
		logln("TestBasicPubSub: " + why)
	}
	return ok
}

func TestRetainedMessage() bool {
	bb := bus.NewBus(2)
	conn := bb.NewConnection("test")

	conn.Publish(bb.NewMessage(bus.T("config", "sensor"), "persist", true))
	sub := conn.Subscribe(bus.T("config", "sensor"))

	ok, why := wantNext(sub, "persist", 100*time.Millisecond)
	if !ok {
		logln("TestRetainedMessage: " + why)
	}
	return ok
}

func TestWildcard_SingleLevel() bool {
	b := bus.NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(bus.T("svc", "+", "state"))
	s2 := c.Subscribe(bus.T("svc", "+", "+"))
	s3 := c.Subscribe(bus.T("svc", "sensor", "+"))
	sNo := c.Subscribe(bus.T("svc", "+", "error"))

	c.Publish(b.NewMessage(bus.T("svc", "sensor", "state"), "m1", false))
	if ok, _ := wantNext(s1, "m1", 200*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s1 failed")
		return false
	}
	if ok, _ := wantNext(s2, "m1", 200*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s2 failed")
		return false
	}
	if ok, _ := wantNext(s3, "m1", 200*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s3 failed")
		return false
	}
	if ok, _ := wantQuiet(sNo, 60*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: sNo got unexpected")
		return false
	}

	c.Publish(b.NewMessage(bus.T("svc", "uplink", "info"), "m2", false))
	if ok, _ := wantNext(s2, "m2", 200*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s2 m2 failed")
		return false
	}
	if ok, _ := wantQuiet(s1, 60*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s1 got unexpected")
		return false
	}
	if ok, _ := wantQuiet(s3, 60*time.Millisecond); !ok {
		logln("TestWildcard_SingleLevel: s3 got unexpected")
		return false
	}

	// Two tokens never satisfy a three-token pattern.
	c.Publish(b.NewMessage(bus.T("svc", "state"), "m3", false))
	ok1, _ := wantQuiet(s1, 60*time.Millisecond)
	ok2, _ := wantQuiet(s2, 60*time.Millisecond)
	ok3, _ := wantQuiet(s3, 60*time.Millisecond)
	if !(ok1 && ok2 && ok3) {
		logln("TestWildcard_SingleLevel: unexpected messages on short topic")
		return false
	}
	return true
}

func TestWildcard_MultiLevel() bool {
	b := bus.NewBus(16)
	c := b.NewConnection("test")

	sNodeHash := c.Subscribe(bus.T("node", "#"))
	sRootHash := c.Subscribe(bus.T("#"))
	sEpHash := c.Subscribe(bus.T("node", "ep", "#"))
	sNodeExact := c.Subscribe(bus.T("node"))

	// "#" also matches zero remaining tokens.
	c.Publish(b.NewMessage(bus.T("node"), "p1", false))
	if ok, _ := wantNext(sNodeHash, "p1", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/# p1 fail")
		return false
	}
	if ok, _ := wantNext(sRootHash, "p1", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: # p1 fail")
		return false
	}
	if ok, _ := wantNext(sNodeExact, "p1", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node p1 fail")
		return false
	}
	if ok, _ := wantQuiet(sEpHash, 60*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/ep/# got p1")
		return false
	}

	c.Publish(b.NewMessage(bus.T("node", "ep"), "p2", false))
	if ok, _ := wantNext(sNodeHash, "p2", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/# p2 fail")
		return false
	}
	if ok, _ := wantNext(sRootHash, "p2", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: # p2 fail")
		return false
	}
	if ok, _ := wantNext(sEpHash, "p2", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/ep/# p2 fail")
		return false
	}
	if ok, _ := wantQuiet(sNodeExact, 60*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node got p2")
		return false
	}

	// Hash descends through integer tokens too.
	c.Publish(b.NewMessage(bus.T("node", "ep", 1), "p3", false))
	if ok, _ := wantNext(sNodeHash, "p3", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/# p3 fail")
		return false
	}
	if ok, _ := wantNext(sRootHash, "p3", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: # p3 fail")
		return false
	}
	if ok, _ := wantNext(sEpHash, "p3", 200*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node/ep/# p3 fail")
		return false
	}
	if ok, _ := wantQuiet(sNodeExact, 60*time.Millisecond); !ok {
		logln("TestWildcard_MultiLevel: node got p3")
		return false
	}
	return true
}

// TestWildcard_IntTokens checks that "+" matches integer tokens and that an
// int token never aliases its decimal string.
func TestWildcard_IntTokens() bool {
	b := bus.NewBus(16)
	c := b.NewConnection("test")

	sPlus := c.Subscribe(bus.T("node", "ep", "+", "attr", "temperature", "value"))
	sExact := c.Subscribe(bus.T("node", "ep", 1, "attr", "temperature", "value"))
	sString := c.Subscribe(bus.T("node", "ep", "1", "attr", "temperature", "value"))

	c.Publish(b.NewMessage(bus.T("node", "ep", 1, "attr", "temperature", "value"), "v1", false))
	if ok, _ := wantNext(sPlus, "v1", 200*time.Millisecond); !ok {
		logln("TestWildcard_IntTokens: + did not match int token")
		return false
	}
	if ok, _ := wantNext(sExact, "v1", 200*time.Millisecond); !ok {
		logln("TestWildcard_IntTokens: exact int failed")
		return false
	}
	if ok, _ := wantQuiet(sString, 60*time.Millisecond); !ok {
		logln("TestWildcard_IntTokens: int aliased string token")
		return false
	}
	return true
}

func TestWildcard_RetainedDelivery() bool {
	b := bus.NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(bus.T("cfg"), "v-root", true))
	c.Publish(b.NewMessage(bus.T("cfg", "stack"), "v-stack", true))
	c.Publish(b.NewMessage(bus.T("cfg", "stack", "eps"), "v-eps", true))
	c.Publish(b.NewMessage(bus.T("cfg", "sensor"), "v-sensor", true))

	sAll := c.Subscribe(bus.T("cfg", "#"))
	gotAll, ok, _ := drainN(sAll, 4, time.Now().Add(300*time.Millisecond))
	if !ok || !sameSet(gotAll, []string{"v-root", "v-stack", "v-eps", "v-sensor"}) {
		logln("TestWildcard_RetainedDelivery: sAll mismatch")
		return false
	}

	sPlusHash := c.Subscribe(bus.T("cfg", "+", "#"))
	gotPH, ok, _ := drainN(sPlusHash, 3, time.Now().Add(300*time.Millisecond))
	if !ok || !sameSet(gotPH, []string{"v-stack", "v-eps", "v-sensor"}) {
		logln("TestWildcard_RetainedDelivery: sPlusHash mismatch")
		return false
	}

	sPlus := c.Subscribe(bus.T("cfg", "+"))
	gotP, ok, _ := drainN(sPlus, 2, time.Now().Add(300*time.Millisecond))
	if !ok || !sameSet(gotP, []string{"v-stack", "v-sensor"}) {
		logln("TestWildcard_RetainedDelivery: sPlus mismatch")
		return false
	}
	return true
}

func TestWildcard_RetainedClear() bool {
	b := bus.NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(bus.T("cfg", "stack"), "stale", true))
	c.Publish(b.NewMessage(bus.T("cfg", "sensor"), "live", true))
	c.Publish(b.NewMessage(bus.T("cfg", "stack"), nil, true))

	s := c.Subscribe(bus.T("cfg", "#"))
	got, ok, _ := drainN(s, 1, time.Now().Add(300*time.Millisecond))
	if !ok || len(got) != 1 || got[0] != "live" {
		logln("TestWildcard_RetainedClear: expected only 'live'")
		return false
	}
	return true
}

func TestWildcard_NoMatchCases() bool {
	b := bus.NewBus(8)
	c := b.NewConnection("test")
	s := c.Subscribe(bus.T("node", "+", "state"))

	c.Publish(b.NewMessage(bus.T("node", "state"), "x", false))
	if ok, _ := wantQuiet(s, 60*time.Millisecond); !ok {
		logln("TestWildcard_NoMatchCases: got x")
		return false
	}
	c.Publish(b.NewMessage(bus.T("node", "ep", "value"), "y", false))
	if ok, _ := wantQuiet(s, 60*time.Millisecond); !ok {
		logln("TestWildcard_NoMatchCases: got y")
		return false
	}
	return true
}

func TestRequestReply_RequestWait() bool {
	b := bus.NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqTopic := bus.T("node", "state", "get")
	respSub := respConn.Subscribe(reqTopic)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if msg, ok := <-respSub.Channel(); ok {
			respConn.Reply(msg, "OK", false)
		}
	}()

	req := b.NewMessage(reqTopic, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	respConn.Unsubscribe(respSub)
	<-done

	if err != nil {
		logln("TestRequestReply_RequestWait: timeout/error")
		return false
	}
	got, ok := reply.Payload.(string)
	if !ok || got != "OK" {
		logln("TestRequestReply_RequestWait: bad reply payload")
		return false
	}
	// The reply must arrive on the request's ReplyTo topic.
	same := reply.Topic.Len() == req.ReplyTo.Len()
	if same {
		for i := 0; i < reply.Topic.Len(); i++ {
			if reply.Topic.At(i) != req.ReplyTo.At(i) {
				same = false
				break
			}
		}
	}
	if req.ReplyTo.Len() == 0 || !same {
		logln("TestRequestReply_RequestWait: ReplyTo/topic mismatch")
		return false
	}
	return true
}

func TestRequestReply_Timeout() bool {
	b := bus.NewBus(8)
	reqConn := b.NewConnection("requester")

	req := b.NewMessage(bus.T("service", "noop"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reqConn.RequestWait(ctx, req)
	if err == nil {
		logln("TestRequestReply_Timeout: expected timeout")
		return false
	}
	return true
}

func TestRequestReply_ManualSubscription() bool {
	b := bus.NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	reqTopic := bus.T("node", "ep", 1, "attr", "temperature", "set")
	reqSub := respConn.Subscribe(reqTopic)
	defer respConn.Unsubscribe(reqSub)

	reqMsg := b.NewMessage(reqTopic, nil, false)
	replySub := reqConn.Request(reqMsg)
	defer reqConn.Unsubscribe(replySub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if msg, ok := <-reqSub.Channel(); ok {
			respConn.Reply(msg, map[string]any{"value": 42}, false)
		}
	}()

	select {
	case got := <-replySub.Channel():
		m, ok := got.Payload.(map[string]any)
		if !ok {
			logln("TestRequestReply_ManualSubscription: wrong type")
			return false
		}
		v, ok := m["value"].(int)
		if !ok || v != 42 {
			logln("TestRequestReply_ManualSubscription: bad content")
			return false
		}
	case <-time.After(300 * time.Millisecond):
		logln("TestRequestReply_ManualSubscription: timeout")
		return false
	}
	<-done
	return true
}

func TestTopic_InvalidTokenPanics() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			// we DID get the panic we expected
			ok = true
		} else {
			logln("TestTopic_InvalidTokenPanics: expected panic, got none")
			ok = false
		}
	}()
	_ = bus.T([]byte{1, 2, 3}) // only string and int tokens are legal
	return false               // only reached if no panic
}

// --- main: run all tests, report, and blink LED on failure --------------------

type testFn struct {
	name string
	fn   func() bool
}

func main() {
	// Give the USB CDC time to enumerate so logs show up reliably.
	time.Sleep(250 * time.Millisecond)

	if err := board.Init(); err != nil {
		println("board init failed:", err.Error())
	}
	board.SetStatusLED(true) // signal "running"

	tests := []testFn{
		{"TestBasicPubSub", TestBasicPubSub},
		{"TestRetainedMessage", TestRetainedMessage},
		{"TestWildcard_SingleLevel", TestWildcard_SingleLevel},
		{"TestWildcard_MultiLevel", TestWildcard_MultiLevel},
		{"TestWildcard_IntTokens", TestWildcard_IntTokens},
		{"TestWildcard_RetainedDelivery", TestWildcard_RetainedDelivery},
		{"TestWildcard_RetainedClear", TestWildcard_RetainedClear},
		{"TestWildcard_NoMatchCases", TestWildcard_NoMatchCases},
		{"TestRequestReply_RequestWait", TestRequestReply_RequestWait},
		{"TestRequestReply_Timeout", TestRequestReply_Timeout},
		{"TestRequestReply_ManualSubscription", TestRequestReply_ManualSubscription},
		{"TestTopic_InvalidTokenPanics", TestTopic_InvalidTokenPanics},
	}

	passed, failed := 0, 0
	logln("== bus self-test starting ==")
	for _, tc := range tests {
		ok := tc.fn()
		if ok {
			logln("[PASS] " + tc.name)
			passed++
		} else {
			logln("[FAIL] " + tc.name)
			failed++
		}
		// tiny pause between tests to keep timings sane on MCU
		time.Sleep(10 * time.Millisecond)
	}
	logln("== done: " + itoa(passed) + " passed, " + itoa(failed) + " failed ==")

	// LED: solid ON if all passed, otherwise slow blink forever.
	if failed == 0 {
		for {
			board.SetStatusLED(true)
			time.Sleep(2 * time.Second)
		}
	} else {
		for {
			board.SetStatusLED(true)
			time.Sleep(250 * time.Millisecond)
			board.SetStatusLED(false)
			time.Sleep(250 * time.Millisecond)
		}
	}
}
