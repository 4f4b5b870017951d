package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: node ID (same value placed in ctx under CtxNodeKey)
// Val: raw JSON bytes for that node
// -----------------------------------------------------------------------------

const cfgEnvnode = `{
  "stack": {
    "node": "envnode-01",
    "endpoints": [
      {
        "id": 1,
        "attributes": [
          {"name": "temperature", "min": -4000, "max": 12500},
          {"name": "humidity", "min": 0, "max": 10000}
        ]
      }
    ]
  },
  "sensor": {
    "source": "virtual",
    "endpoint": 1,
    "period_ms": 10000,
    "start_delay_ms": 5000
  },
  "heartbeat": {
    "interval_ms": 2000
  },
  "uplink": {
    "transport": {
      "type": "mqtt",
      "mqtt": {
        "broker": "tcp://127.0.0.1:1883",
        "client_id": "envnode-01",
        "topic_prefix": "envnode/envnode-01"
      }
    }
  }
}`

const cfgPico = `{
  "stack": {
    "node": "pico-01",
    "endpoints": [
      {
        "id": 1,
        "attributes": [
          {"name": "temperature", "min": -4000, "max": 12500},
          {"name": "humidity", "min": 0, "max": 10000}
        ]
      }
    ]
  },
  "sensor": {
    "source": "aht20",
    "endpoint": 1,
    "period_ms": 10000,
    "start_delay_ms": 5000
  },
  "heartbeat": {
    "interval_ms": 2000
  },
  "uplink": {
    "transport": {
      "type": "serial",
      "serial": {"baud": 115200}
    }
  }
}`

var embeddedConfigs = map[string][]byte{
	"envnode": []byte(cfgEnvnode),
	"pico":    []byte(cfgPico),
}
