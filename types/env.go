package types

// ---- Attribute data model ----

// Attr names an attribute on an endpoint.
type Attr string

const (
	AttrTemperature Attr = "temperature"
	AttrHumidity    Attr = "humidity"
)

// Status is the byte-sized result of an attribute write, following the
// interaction-model code values so logs match what a commissioner would see.
type Status uint8

const (
	StatusSuccess              Status = 0x00
	StatusFailure              Status = 0x01
	StatusUnsupportedEndpoint  Status = 0x7F
	StatusUnsupportedAttribute Status = 0x86
	StatusConstraintError      Status = 0x87
	StatusInvalidDataType      Status = 0x8D
	StatusBusy                 Status = 0x9C
)

func (s Status) OK() bool { return s == StatusSuccess }

// AttrWrite is the request payload on "node/ep/<id>/attr/<name>/set".
// Value is in x100 fixed point (hundredths of a unit).
type AttrWrite struct {
	Value int32 `json:"value"`
}

// AttrReport is the retained payload on "node/ep/<id>/attr/<name>/value".
type AttrReport struct {
	Value   int32  `json:"value"` // x100 fixed point
	Version uint32 `json:"version"`
	TS      int64  `json:"ts_ms"`
}

// SetReply answers an attribute set request.
type SetReply struct {
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
	Version uint32 `json:"version,omitempty"`
}
