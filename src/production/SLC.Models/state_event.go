package mqtmodels

import "time"

// StateEvent is published whenever a device status change is acknowledged
type StateEvent struct {
	DeviceID  string    `json:"device_id"`
	LedNumber int       `json:"led_number"`
	Field     string    `json:"field"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Source    string    `json:"source"` // toggle or master-toggle
	Ts        time.Time `json:"ts"`
}

// Event sources
const (
	SourceToggle       = "toggle"
	SourceMasterToggle = "master-toggle"
)
