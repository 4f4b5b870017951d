package types

// ---- Node state (retained on "node/state") ----

type NodeState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // freeform short code
	Node   string `json:"node"`
	BootID string `json:"boot_id"`
	TS     int64  `json:"ts_ms"`
}

// ServiceState is the retained per-service state envelope published on
// "<service>/state".
type ServiceState struct {
	Level  string `json:"level"`  // "idle", "up", "degraded", "error", "stopped"
	Status string `json:"status"` // short machine string
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// HeartbeatValue is published retained on "node/heartbeat".
type HeartbeatValue struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
	TS       int64  `json:"ts_ms"`
}
