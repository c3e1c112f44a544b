package control

import (
	"context"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	rbac "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/rbac"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
)

// WriteOwnField writes a channel field with the caller's own ThingSpeak key.
// No device record is involved.
func (c *Controller) WriteOwnField(ctx context.Context, session *rbac.Session, field string, value *int) error {
	if session == nil {
		return apperror.Unauthorized("authentication required")
	}
	if value == nil {
		return apperror.Validation("value is required")
	}
	if !hardware_models.ValidField(field) {
		return apperror.Validation("field must be one of field1..field8")
	}
	if _, err := hardware_models.StatusFromValue(*value); err != nil {
		return apperror.Validation(err.Error())
	}

	apiKey, err := c.resolver.ResolveAccount(ctx, session.UserID)
	if err != nil {
		return err
	}

	unlock := c.locks.Lock(ownFieldLockKey(session.UserID, field))
	defer unlock()

	if err := c.relay.SetField(ctx, apiKey, field, *value); err != nil {
		return err
	}
	c.logger.Logger.Info().Str("user_id", session.UserID).Str("field", field).Int("value", *value).Msg("Self-service field write")
	return nil
}

func ownFieldLockKey(userID, field string) string {
	return "account:" + userID + "/" + field
}
