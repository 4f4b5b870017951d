package types

// Per-service configuration, supplied on the "config/<service>" topics.

// StackConfig declares the node's data model. Supplied on "config/stack".
type StackConfig struct {
	Node      string           `json:"node"`
	Endpoints []EndpointConfig `json:"endpoints"`
}

type EndpointConfig struct {
	ID         int               `json:"id"`
	Attributes []AttributeConfig `json:"attributes"`
}

// AttributeConfig bounds are in x100 fixed point.
type AttributeConfig struct {
	Name string `json:"name"`
	Min  int32  `json:"min"`
	Max  int32  `json:"max"`
}

// SensorConfig is supplied on "config/sensor".
type SensorConfig struct {
	Source       string `json:"source"` // "virtual" or "aht20"
	Endpoint     int    `json:"endpoint"`
	PeriodMs     uint32 `json:"period_ms"`
	StartDelayMs uint32 `json:"start_delay_ms"`
	I2CBus       string `json:"i2c_bus,omitempty"` // hosted builds; "" selects the first bus
}

// UplinkConfig is supplied on "config/uplink".
type UplinkConfig struct {
	Transport TransportConfig `json:"transport"`
}

type TransportConfig struct {
	// "mqtt" or "serial", or other names registered via RegisterTransport.
	Type   string        `json:"type"`
	MQTT   *MQTTConfig   `json:"mqtt,omitempty"`
	Serial *SerialConfig `json:"serial,omitempty"`
}

type MQTTConfig struct {
	Broker      string `json:"broker"` // e.g. "tcp://localhost:1883"
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos,omitempty"`
}

type SerialConfig struct {
	Port string `json:"port,omitempty"` // hosted builds, e.g. "/dev/ttyACM0"
	Baud int    `json:"baud"`
}

// HeartbeatConfig is supplied on "config/heartbeat".
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}
