package sensor

import (
	"math"
	"testing"
)

func TestTempX100_TruncatesTowardZero(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{25.0, 2500},
		{25.349, 2534},
		{25.995, 2599}, // truncation, not rounding
		{29.999, 2999},
		{20.0, 2000},
		{0, 0},
		{-3.056, -305},
	}
	for _, c := range cases {
		if got := TempX100(c.in); got != c.want {
			t.Errorf("TempX100(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestHumX100_TruncatesTowardZero(t *testing.T) {
	cases := []struct {
		in   float32
		want uint16
	}{
		{50.0, 5000},
		{40.555, 4055},
		{59.999, 5999},
		{0, 0},
	}
	for _, c := range cases {
		if got := HumX100(c.in); got != c.want {
			t.Errorf("HumX100(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestConvert_ClampsUnrepresentable(t *testing.T) {
	if got := TempX100(1e6); got != math.MaxInt16 {
		t.Errorf("TempX100(1e6) = %d", got)
	}
	if got := TempX100(-1e6); got != math.MinInt16 {
		t.Errorf("TempX100(-1e6) = %d", got)
	}
	if got := HumX100(1e6); got != math.MaxUint16 {
		t.Errorf("HumX100(1e6) = %d", got)
	}
	if got := HumX100(-5); got != 0 {
		t.Errorf("HumX100(-5) = %d", got)
	}
}

func TestConvert_Monotonic(t *testing.T) {
	prev := TempX100(20)
	for c := float32(20); c <= 30; c += 0.01 {
		v := TempX100(c)
		if v < prev {
			t.Fatalf("TempX100 not monotonic at %v: %d < %d", c, v, prev)
		}
		prev = v
	}

	prevH := HumX100(40)
	for rh := float32(40); rh <= 60; rh += 0.05 {
		v := HumX100(rh)
		if v < prevH {
			t.Fatalf("HumX100 not monotonic at %v: %d < %d", rh, v, prevH)
		}
		prevH = v
	}
}
