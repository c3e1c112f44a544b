package control

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

const msgDeviceNotFound = "street light not found"

// DeviceService is the device registry
type DeviceService struct {
	devices  interfaces.DeviceRepository
	accounts interfaces.AccountRepository
	resolver *telemetry.Resolver
	locks    *KeyedMutex
	logger   *logger.Logger
}

// NewDeviceService creates a new device service. locks must be the set the
// toggle controller uses.
func NewDeviceService(devices interfaces.DeviceRepository, accounts interfaces.AccountRepository, resolver *telemetry.Resolver, locks *KeyedMutex, log *logger.Logger) *DeviceService {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &DeviceService{
		devices:  devices,
		accounts: accounts,
		resolver: resolver,
		locks:    locks,
		logger:   log.WithComponent("devices"),
	}
}

// List returns the devices visible to session: all for staff, own personal devices for users
func (s *DeviceService) List(ctx context.Context, session *rbac.Session) ([]*hardware_models.Device, error) {
	filter := interfaces.DeviceFilter{}
	if !session.Role.IsStaff() {
		filter = interfaces.DeviceFilter{Scope: hardware_models.ScopePersonal, OwnerID: session.UserID}
	}
	devices, err := s.devices.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to list devices", err)
	}
	return devices, nil
}

// Get loads a device the session may see. Hidden devices read as not found.
func (s *DeviceService) Get(ctx context.Context, session *rbac.Session, deviceID string) (*hardware_models.Device, error) {
	device, err := s.load(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanView(session, device) {
		return nil, apperror.NotFound(msgDeviceNotFound)
	}
	return device, nil
}

func (s *DeviceService) load(ctx context.Context, deviceID string) (*hardware_models.Device, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.NotFound(msgDeviceNotFound)
	}
	if err != nil {
		return nil, apperror.Internal("failed to load device", err)
	}
	return device, nil
}

// Create registers devices. Each request is validated before any is stored.
func (s *DeviceService) Create(ctx context.Context, session *rbac.Session, reqs []api_models.DeviceRequest) ([]*hardware_models.Device, error) {
	if len(reqs) == 0 {
		return nil, apperror.Validation("no devices supplied")
	}

	pending := make([]*hardware_models.Device, 0, len(reqs))
	for i, req := range reqs {
		device := &hardware_models.Device{
			Scope:              hardware_models.ScopeShared,
			OwnerID:            session.UserID,
			Status:             hardware_models.StatusOff,
			CredentialStrategy: hardware_models.StrategyShared,
		}
		if err := applyDeviceRequest(device, req); err != nil {
			return nil, withIndex(err, i, len(reqs))
		}
		if req.CredentialStrategy == nil && device.Scope == hardware_models.ScopePersonal {
			device.CredentialStrategy = hardware_models.StrategyAccount
		}
		if err := s.validate(ctx, device, pending); err != nil {
			return nil, withIndex(err, i, len(reqs))
		}
		pending = append(pending, device)
	}

	created := make([]*hardware_models.Device, 0, len(pending))
	for _, device := range pending {
		d, err := s.devices.Create(ctx, device)
		if errors.Is(err, interfaces.ErrDuplicate) {
			return created, apperror.Conflict(fmt.Sprintf("LED number %d is already in use", device.LedNumber))
		}
		if err != nil {
			return created, apperror.Internal("failed to create device", err)
		}
		created = append(created, d)
		s.logger.Logger.Info().Str("device_id", d.DeviceID).Int("led_number", d.LedNumber).Str("field", d.FieldID).Msg("Street light created")
	}
	return created, nil
}

// Update changes a device's registration. Status is only changed by toggles,
// and the device lock keeps an edit from interleaving with one.
func (s *DeviceService) Update(ctx context.Context, deviceID string, req api_models.DeviceRequest) (*hardware_models.Device, error) {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	device, err := s.load(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if err := applyDeviceRequest(device, req); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, device, nil); err != nil {
		return nil, err
	}

	if err := s.devices.Update(ctx, device); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, apperror.NotFound(msgDeviceNotFound)
		case errors.Is(err, interfaces.ErrDuplicate):
			return nil, apperror.Conflict(fmt.Sprintf("LED number %d is already in use", device.LedNumber))
		}
		return nil, apperror.Internal("failed to update device", err)
	}
	return device, nil
}

func (s *DeviceService) Delete(ctx context.Context, deviceID string) error {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	err := s.devices.Delete(ctx, deviceID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperror.NotFound(msgDeviceNotFound)
	}
	if err != nil {
		return apperror.Internal("failed to delete device", err)
	}
	s.logger.Logger.Info().Str("device_id", deviceID).Msg("Street light deleted")
	return nil
}

// validate checks a device against the registry and the other devices in
// the same batch: LED numbers are unique, a channel field binds one device.
func (s *DeviceService) validate(ctx context.Context, device *hardware_models.Device, batch []*hardware_models.Device) error {
	if device.Name == "" {
		return apperror.Validation("name is required")
	}
	if device.LedNumber <= 0 {
		return apperror.Validation("ledNumber must be a positive integer")
	}
	if !hardware_models.ValidField(device.FieldID) {
		return apperror.Validation("thingSpeakField must be one of field1..field8")
	}

	switch device.Scope {
	case hardware_models.ScopeShared, hardware_models.ScopePersonal:
	default:
		return apperror.Validation(fmt.Sprintf("unknown scope %q", device.Scope))
	}
	switch device.CredentialStrategy {
	case hardware_models.StrategyShared:
	case hardware_models.StrategyAccount:
		if device.CredentialID != "" {
			return apperror.Validation("credentialId only applies to the shared strategy")
		}
	default:
		return apperror.Validation(fmt.Sprintf("unknown credential strategy %q", device.CredentialStrategy))
	}

	if device.Scope == hardware_models.ScopePersonal {
		if _, err := s.accounts.GetByID(ctx, device.OwnerID); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return apperror.Validation("owner account does not exist")
			}
			return apperror.Internal("failed to load owner", err)
		}
	}
	if device.CredentialID != "" {
		if _, err := s.resolver.ResolveShared(ctx, device.CredentialID); err != nil {
			return err
		}
	}

	existing, err := s.devices.List(ctx, interfaces.DeviceFilter{})
	if err != nil {
		return apperror.Internal("failed to list devices", err)
	}
	key := s.resolver.ChannelKey(ctx, device)
	for _, other := range append(existing, batch...) {
		if other.DeviceID != "" && other.DeviceID == device.DeviceID {
			continue
		}
		if other.LedNumber == device.LedNumber {
			return apperror.Conflict(fmt.Sprintf("LED number %d is already in use", device.LedNumber))
		}
		if other.FieldID == device.FieldID && s.resolver.ChannelKey(ctx, other) == key {
			return apperror.Conflict(fmt.Sprintf("%s is already bound to %q on this channel", device.FieldID, other.Name))
		}
	}
	return nil
}

func applyDeviceRequest(d *hardware_models.Device, req api_models.DeviceRequest) error {
	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.LedNumber != nil {
		d.LedNumber = *req.LedNumber
	}
	if req.FieldID != nil {
		d.FieldID = strings.TrimSpace(*req.FieldID)
	}
	if req.Scope != nil {
		d.Scope = hardware_models.Scope(strings.ToLower(strings.TrimSpace(*req.Scope)))
	}
	if req.OwnerID != nil && *req.OwnerID != "" {
		d.OwnerID = *req.OwnerID
	}
	if req.InputStatusRef != nil {
		d.InputStatusRef = strings.TrimSpace(*req.InputStatusRef)
	}
	if req.CurrentStatusRef != nil {
		d.CurrentStatusRef = strings.TrimSpace(*req.CurrentStatusRef)
	}
	if req.CredentialStrategy != nil {
		d.CredentialStrategy = hardware_models.CredentialStrategy(strings.ToLower(strings.TrimSpace(*req.CredentialStrategy)))
	}
	if req.CredentialID != nil {
		d.CredentialID = strings.TrimSpace(*req.CredentialID)
	}
	return nil
}

func withIndex(err error, i, n int) error {
	if n == 1 {
		return err
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return &apperror.Error{Kind: appErr.Kind, Message: fmt.Sprintf("device %d: %s", i, appErr.Message), Err: appErr.Err}
	}
	return err
}
