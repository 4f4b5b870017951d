package stack

import "envnode-go/bus"

// Opaque-topic helpers

func T(tokens ...any) bus.Topic { return bus.T(tokens...) }

func topicConfigStack() bus.Topic { return T("config", "stack") }
func topicNodeState() bus.Topic   { return T("node", "state") }

// node/ep/<id>/attr/<name>/...
func attrBase(ep int, name string) bus.Topic { return T("node", "ep", ep, "attr", name) }

func attrValue(ep int, name string) bus.Topic { return attrBase(ep, name).Append("value") }
func attrSet(ep int, name string) bus.Topic   { return attrBase(ep, name).Append("set") }

// node/ep/+/attr/+/set
func setWildcard() bus.Topic { return T("node", "ep", "+", "attr", "+", "set") }
