package hardware_models

import (
	"fmt"
	"time"
)

// Status is the last acknowledged physical state of a street light
type Status string

// Statuses
const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// Flip returns the opposite status
func (s Status) Flip() Status {
	if s == StatusOn {
		return StatusOff
	}
	return StatusOn
}

// FieldValue is the value written to the ThingSpeak field for s
func (s Status) FieldValue() int {
	if s == StatusOn {
		return 1
	}
	return 0
}

// StatusFromValue maps a field value (0 or 1) to a status
func StatusFromValue(v int) (Status, error) {
	switch v {
	case 1:
		return StatusOn, nil
	case 0:
		return StatusOff, nil
	}
	return "", fmt.Errorf("value must be 0 or 1, got %d", v)
}

// Scope says who a device belongs to
type Scope string

// Scopes
const (
	ScopeShared   Scope = "shared"
	ScopePersonal Scope = "personal"
)

// CredentialStrategy selects which ThingSpeak key a device writes with
type CredentialStrategy string

// Strategies
const (
	// StrategyShared uses the pinned credential, else the active one
	StrategyShared CredentialStrategy = "shared"
	// StrategyAccount uses the API token stored on the owning account
	StrategyAccount CredentialStrategy = "account"
)

// MaxField is the highest ThingSpeak channel field number
const MaxField = 8

// Device represents a street light bound to a ThingSpeak channel field
type Device struct {
	DeviceID           string             `json:"id" bson:"_id"`
	Name               string             `json:"name" bson:"name"`
	LedNumber          int                `json:"ledNumber" bson:"ledNumber"`
	FieldID            string             `json:"thingSpeakField" bson:"thingSpeakField"`
	Scope              Scope              `json:"scope" bson:"scope"`
	OwnerID            string             `json:"ownerId" bson:"createdBy"`
	Status             Status             `json:"status" bson:"status"`
	InputStatusRef     string             `json:"inputStatusUrl,omitempty" bson:"inputStatusUrl,omitempty"`
	CurrentStatusRef   string             `json:"currentStatusUrl,omitempty" bson:"currentStatusUrl,omitempty"`
	CredentialStrategy CredentialStrategy `json:"credentialStrategy" bson:"credentialStrategy"`
	CredentialID       string             `json:"credentialId,omitempty" bson:"credentialId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ValidField reports whether f names a channel field ("field1".."field8")
func ValidField(f string) bool {
	var n int
	if _, err := fmt.Sscanf(f, "field%d", &n); err != nil {
		return false
	}
	return n >= 1 && n <= MaxField && f == fmt.Sprintf("field%d", n)
}
