package api_models

// SignInRequest is the password sign-in body
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token. The refresh_token cookie is used when empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// CreateAccountRequest is used by admins and by first-run setup
type CreateAccountRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password"`
	Image    string `json:"image"`
	Role     string `json:"role"`
	APIKey   string `json:"thingspeakApiKey"`
}

// UpdateAccountRequest changes mutable account fields. Nil fields are left as is.
type UpdateAccountRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// SetAPIKeyRequest sets an account's ThingSpeak token. An empty key clears it.
type SetAPIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// DeviceRequest creates or updates a device
type DeviceRequest struct {
	Name               *string `json:"name"`
	LedNumber          *int    `json:"ledNumber"`
	FieldID            *string `json:"thingSpeakField"`
	Scope              *string `json:"scope"`
	OwnerID            *string `json:"ownerId"`
	InputStatusRef     *string `json:"inputStatusUrl"`
	CurrentStatusRef   *string `json:"currentStatusUrl"`
	CredentialStrategy *string `json:"credentialStrategy"`
	CredentialID       *string `json:"credentialId"`
}

// BulkDeviceRequest creates several devices at once
type BulkDeviceRequest struct {
	Devices []DeviceRequest `json:"devices"`
}

// ToggleRequest optionally forces the target value (0 or 1)
type ToggleRequest struct {
	Value *int `json:"value"`
}

// ToggleResult reports a single device transition
type ToggleResult struct {
	DeviceID string `json:"deviceId"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// MasterToggleResult reports a sweep over all shared devices
type MasterToggleResult struct {
	Status    string   `json:"status"`
	Success   bool     `json:"success"`
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed"`
}

// CredentialRequest creates or updates a telemetry credential
type CredentialRequest struct {
	Name        *string `json:"name"`
	APIKey      *string `json:"apiKey"`
	ChannelID   *string `json:"channelId"`
	Description *string `json:"description"`
}

// TelemetryUpdateRequest is the self-service field write
type TelemetryUpdateRequest struct {
	Field string `json:"field" binding:"required"`
	Value *int   `json:"value" binding:"required"`
}

// SetupRequest bootstraps the first admin
type SetupRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	APIKey   string `json:"thingspeakApiKey"`
	Channel  string `json:"channelId"`
}

// Analytics summarises accounts and devices
type Analytics struct {
	TotalUsers       int            `json:"totalUsers"`
	UsersByRole      map[string]int `json:"usersByRole"`
	UsersWithAPIKey  int            `json:"usersWithApiKey"`
	TotalDevices     int            `json:"totalDevices"`
	DevicesOn        int            `json:"devicesOn"`
	DevicesOff       int            `json:"devicesOff"`
	TotalCredentials int            `json:"totalCredentials"`
	ActiveCredential string         `json:"activeCredential,omitempty"`
}
