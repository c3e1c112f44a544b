package telemetry_models

import "time"

// Credential is a shared ThingSpeak channel write key
type Credential struct {
	CredentialID string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	APIKey       string    `json:"apiKey" bson:"apiKey"`
	ChannelID    string    `json:"channelId" bson:"channelId"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	Active       bool      `json:"active" bson:"active"`
	CreatedBy    string    `json:"createdBy" bson:"createdBy"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Key identifies the channel a credential writes to. Devices that resolve to
// the same key must not share a field.
func (c *Credential) Key() string {
	if c.ChannelID != "" {
		return "channel:" + c.ChannelID
	}
	return "key:" + c.APIKey
}
