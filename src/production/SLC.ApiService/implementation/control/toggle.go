package control

import (
	"context"
	"errors"
	"sync"
	"time"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	events "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/events"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	telemetry "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/telemetry"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

// Controller drives device status transitions. A device's stored status only
// changes after ThingSpeak acknowledged the write, and transitions of one
// device never interleave within this process.
type Controller struct {
	devices   interfaces.DeviceRepository
	resolver  *telemetry.Resolver
	relay     telemetry.Relay
	publisher events.Publisher
	logger    *logger.Logger

	locks *KeyedMutex
	sweep sync.Mutex
}

// NewController creates a new toggle controller
func NewController(
	devices interfaces.DeviceRepository,
	resolver *telemetry.Resolver,
	relay telemetry.Relay,
	publisher events.Publisher,
	locks *KeyedMutex,
	log *logger.Logger,
) *Controller {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &Controller{
		devices:   devices,
		resolver:  resolver,
		relay:     relay,
		publisher: publisher,
		logger:    log.WithComponent("control"),
		locks:     locks,
	}
}

// Toggle flips a device, or drives it to value when given
func (c *Controller) Toggle(ctx context.Context, session *rbac.Session, deviceID string, value *int) (*api_models.ToggleResult, error) {
	if session == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	forced, err := parseValue(value)
	if err != nil {
		return nil, err
	}

	unlock := c.locks.Lock(deviceID)
	defer unlock()

	device, err := c.devices.GetByID(ctx, deviceID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, apperror.NotFound(msgDeviceNotFound)
	}
	if err != nil {
		return nil, apperror.Internal("failed to load device", err)
	}
	if !rbac.CanControl(session, device) {
		return nil, apperror.Forbidden("you may not control this street light")
	}

	apiKey, err := c.resolver.ResolveForDevice(ctx, device)
	if err != nil {
		return nil, err
	}

	target := device.Status.Flip()
	if forced != "" {
		target = forced
	}

	if err := c.apply(ctx, session, device, apiKey, target, mqtmodels.SourceToggle); err != nil {
		return nil, err
	}

	return &api_models.ToggleResult{
		DeviceID: device.DeviceID,
		Status:   string(target),
		Success:  true,
		Message:  "Street light turned " + string(target),
	}, nil
}

// MasterToggle drives every shared device to one status. The shared
// credential is resolved before any call, so a missing credential changes
// nothing. Without value the target is the opposite of the first device's
// status, by LED number.
func (c *Controller) MasterToggle(ctx context.Context, session *rbac.Session, value *int) (*api_models.MasterToggleResult, error) {
	if err := rbac.Check(session, rbac.Staff); err != nil {
		return nil, err
	}
	forced, err := parseValue(value)
	if err != nil {
		return nil, err
	}

	c.sweep.Lock()
	defer c.sweep.Unlock()

	credential, err := c.resolver.ResolveShared(ctx, "")
	if err != nil {
		return nil, err
	}

	devices, err := c.devices.List(ctx, interfaces.DeviceFilter{Scope: hardware_models.ScopeShared})
	if err != nil {
		return nil, apperror.Internal("failed to list devices", err)
	}
	if len(devices) == 0 {
		return nil, apperror.NotFound("no street lights configured")
	}

	target := devices[0].Status.Flip()
	if forced != "" {
		target = forced
	}

	result := &api_models.MasterToggleResult{
		Status: string(target),
		Failed: make([]string, 0),
	}
	for _, d := range devices {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, d.DeviceID)
			continue
		}
		result.Attempted++
		if err := c.sweepOne(ctx, session, d.DeviceID, credential.APIKey, target); err != nil {
			result.Failed = append(result.Failed, d.DeviceID)
			continue
		}
		result.Succeeded++
	}
	result.Success = len(result.Failed) == 0

	c.logger.Logger.Info().
		Str("status", result.Status).
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("failed", len(result.Failed)).
		Str("by", session.UserID).
		Msg("Master toggle finished")
	return result, nil
}

// sweepOne re-reads the device under its lock so a concurrent single toggle is never lost
func (c *Controller) sweepOne(ctx context.Context, session *rbac.Session, deviceID, sharedKey string, target hardware_models.Status) error {
	unlock := c.locks.Lock(deviceID)
	defer unlock()

	device, err := c.devices.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}

	apiKey := sharedKey
	if device.CredentialStrategy == hardware_models.StrategyAccount || device.CredentialID != "" {
		if apiKey, err = c.resolver.ResolveForDevice(ctx, device); err != nil {
			return err
		}
	}
	return c.apply(ctx, session, device, apiKey, target, mqtmodels.SourceMasterToggle)
}

// apply writes target to ThingSpeak and commits it on acknowledgement.
// Caller holds the device lock.
func (c *Controller) apply(ctx context.Context, session *rbac.Session, device *hardware_models.Device, apiKey string, target hardware_models.Status, source string) error {
	log := c.logger.WithDevice(device.DeviceID, device.FieldID).Logger.With().Str("target", string(target)).Logger()

	if err := c.relay.SetField(ctx, apiKey, device.FieldID, target.FieldValue()); err != nil {
		log.Warn().Err(err).Msg("Telemetry write failed, status unchanged")
		return err
	}

	if err := c.devices.UpdateStatus(ctx, device.DeviceID, target); err != nil {
		log.Error().Err(err).Msg("ThingSpeak acknowledged but status could not be stored")
		return apperror.Internal("failed to store device status", err)
	}

	c.publisher.PublishState(ctx, mqtmodels.StateEvent{
		DeviceID:  device.DeviceID,
		LedNumber: device.LedNumber,
		Field:     device.FieldID,
		Status:    string(target),
		ChangedBy: session.UserID,
		Source:    source,
		Ts:        time.Now().UTC(),
	})

	log.Info().Str("by", session.UserID).Str("source", source).Msg("Street light status changed")
	return nil
}

func parseValue(value *int) (hardware_models.Status, error) {
	if value == nil {
		return "", nil
	}
	status, err := hardware_models.StatusFromValue(*value)
	if err != nil {
		return "", apperror.Validation(err.Error())
	}
	return status, nil
}
