package interfaces

import (
	"context"

	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
)

// DeviceFilter narrows List. Zero fields match everything.
type DeviceFilter struct {
	Scope   hardware_models.Scope
	OwnerID string
}

type DeviceRepository interface {
	// Create device. Returns ErrDuplicate when the LED number is taken.
	Create(ctx context.Context, device *hardware_models.Device) (*hardware_models.Device, error)

	// Read devices, ordered by LED number
	GetByID(ctx context.Context, deviceID string) (*hardware_models.Device, error)
	List(ctx context.Context, filter DeviceFilter) ([]*hardware_models.Device, error)

	// Update writes registration fields and leaves the stored status alone.
	// UpdateStatus is the only writer of status.
	Update(ctx context.Context, device *hardware_models.Device) error
	UpdateStatus(ctx context.Context, deviceID string, status hardware_models.Status) error

	// Delete device
	Delete(ctx context.Context, deviceID string) error
}
