package stack

import (
	"envnode-go/types"
	"envnode-go/x/mathx"
)

// The registry is the node's attribute store. It is only ever touched from
// the service goroutine, so it carries no lock.

type attribute struct {
	cfg   types.AttributeConfig
	value int32
	valid bool // a value has been accepted since boot
}

type endpoint struct {
	id      int
	attrs   map[string]*attribute
	version uint32 // bumped on every accepted write
}

type registry struct {
	eps map[int]*endpoint
}

func newRegistry() *registry {
	return &registry{eps: map[int]*endpoint{}}
}

// apply merges endpoint declarations. Existing attributes keep their value
// and bounds; reconfiguration is additive, like the rest of the node.
func (r *registry) apply(cfg types.StackConfig) {
	for _, ec := range cfg.Endpoints {
		ep, ok := r.eps[ec.ID]
		if !ok {
			ep = &endpoint{id: ec.ID, attrs: map[string]*attribute{}}
			r.eps[ec.ID] = ep
		}
		for _, ac := range ec.Attributes {
			if _, exists := ep.attrs[ac.Name]; exists {
				continue
			}
			ep.attrs[ac.Name] = &attribute{cfg: ac}
		}
	}
}

// find reports whether the endpoint and attribute are declared.
func (r *registry) find(epID int, name string) types.Status {
	ep, ok := r.eps[epID]
	if !ok {
		return types.StatusUnsupportedEndpoint
	}
	if _, ok := ep.attrs[name]; !ok {
		return types.StatusUnsupportedAttribute
	}
	return types.StatusSuccess
}

// set validates v against the attribute's bounds and stores it. On success
// it returns the endpoint's new data version.
func (r *registry) set(epID int, name string, v int32) (types.Status, uint32) {
	ep, ok := r.eps[epID]
	if !ok {
		return types.StatusUnsupportedEndpoint, 0
	}
	a, ok := ep.attrs[name]
	if !ok {
		return types.StatusUnsupportedAttribute, 0
	}
	if !mathx.Between(v, a.cfg.Min, a.cfg.Max) {
		return types.StatusConstraintError, 0
	}
	a.value = v
	a.valid = true
	ep.version++
	return types.StatusSuccess, ep.version
}

// get returns the last accepted value, if any.
func (r *registry) get(epID int, name string) (int32, bool) {
	ep, ok := r.eps[epID]
	if !ok {
		return 0, false
	}
	a, ok := ep.attrs[name]
	if !ok || !a.valid {
		return 0, false
	}
	return a.value, true
}
