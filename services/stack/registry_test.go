package stack

import (
	"testing"

	"envnode-go/types"
)

func testStackConfig() types.StackConfig {
	return types.StackConfig{
		Node: "test-node",
		Endpoints: []types.EndpointConfig{
			{
				ID: 1,
				Attributes: []types.AttributeConfig{
					{Name: "temperature", Min: -4000, Max: 12500},
					{Name: "humidity", Min: 0, Max: 10000},
				},
			},
		},
	}
}

func TestRegistry_SetWithinBounds(t *testing.T) {
	r := newRegistry()
	r.apply(testStackConfig())

	st, ver := r.set(1, "temperature", 2512)
	if st != types.StatusSuccess {
		t.Fatalf("set status = %#x, want success", st)
	}
	if ver != 1 {
		t.Fatalf("version = %d, want 1", ver)
	}
	got, ok := r.get(1, "temperature")
	if !ok || got != 2512 {
		t.Fatalf("get = %d,%v", got, ok)
	}
}

func TestRegistry_BoundsInclusive(t *testing.T) {
	r := newRegistry()
	r.apply(testStackConfig())

	for _, v := range []int32{-4000, 12500} {
		if st, _ := r.set(1, "temperature", v); st != types.StatusSuccess {
			t.Fatalf("edge value %d rejected with %#x", v, st)
		}
	}
	for _, v := range []int32{-4001, 12501} {
		if st, _ := r.set(1, "temperature", v); st != types.StatusConstraintError {
			t.Fatalf("out-of-range value %d accepted (status %#x)", v, st)
		}
	}
}

func TestRegistry_UnknownTargets(t *testing.T) {
	r := newRegistry()
	r.apply(testStackConfig())

	if st, _ := r.set(2, "temperature", 0); st != types.StatusUnsupportedEndpoint {
		t.Fatalf("unknown endpoint status = %#x", st)
	}
	if st, _ := r.set(1, "pressure", 0); st != types.StatusUnsupportedAttribute {
		t.Fatalf("unknown attribute status = %#x", st)
	}
	if st := r.find(2, "temperature"); st != types.StatusUnsupportedEndpoint {
		t.Fatalf("find unknown endpoint = %#x", st)
	}
	if st := r.find(1, "pressure"); st != types.StatusUnsupportedAttribute {
		t.Fatalf("find unknown attribute = %#x", st)
	}
}

func TestRegistry_VersionPerEndpointWrite(t *testing.T) {
	r := newRegistry()
	r.apply(testStackConfig())

	_, v1 := r.set(1, "temperature", 2500)
	_, v2 := r.set(1, "humidity", 5000)
	_, v3 := r.set(1, "temperature", 2510)
	if v1 != 1 || v2 != 2 || v3 != 3 {
		t.Fatalf("versions = %d,%d,%d, want 1,2,3", v1, v2, v3)
	}

	// A rejected write must not bump the version.
	if st, _ := r.set(1, "temperature", 99999); st != types.StatusConstraintError {
		t.Fatal("expected constraint error")
	}
	_, v4 := r.set(1, "temperature", 2520)
	if v4 != 4 {
		t.Fatalf("version after rejected write = %d, want 4", v4)
	}
}

func TestRegistry_ReapplyKeepsValues(t *testing.T) {
	r := newRegistry()
	r.apply(testStackConfig())
	r.set(1, "temperature", 2600)

	r.apply(testStackConfig())

	got, ok := r.get(1, "temperature")
	if !ok || got != 2600 {
		t.Fatalf("value lost across reapply: %d,%v", got, ok)
	}
}
