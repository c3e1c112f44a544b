package analytics

import (
	"context"
	"errors"

	apperror "gitlab.com/maplesense1/slc.control_server/src/production/SLC.ApiService/implementation/apperror"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

// Service computes dashboard counts from the stores
type Service struct {
	accounts    interfaces.AccountRepository
	devices     interfaces.DeviceRepository
	credentials interfaces.CredentialRepository
}

func NewService(accounts interfaces.AccountRepository, devices interfaces.DeviceRepository, credentials interfaces.CredentialRepository) *Service {
	return &Service{accounts: accounts, devices: devices, credentials: credentials}
}

// Summary returns user, device and credential counts
func (s *Service) Summary(ctx context.Context) (*api_models.Analytics, error) {
	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	devices, err := s.devices.List(ctx, interfaces.DeviceFilter{})
	if err != nil {
		return nil, apperror.Internal("failed to list devices", err)
	}
	credentials, err := s.credentials.List(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list API configurations", err)
	}

	summary := &api_models.Analytics{
		TotalUsers:       len(accounts),
		UsersByRole:      make(map[string]int, len(auth_models.ValidRoles)),
		TotalDevices:     len(devices),
		TotalCredentials: len(credentials),
	}
	for _, role := range auth_models.ValidRoles {
		summary.UsersByRole[role.String()] = 0
	}
	for _, a := range accounts {
		summary.UsersByRole[a.Role.String()]++
		if a.HasAPIToken() {
			summary.UsersWithAPIKey++
		}
	}
	for _, d := range devices {
		if d.Status == hardware_models.StatusOn {
			summary.DevicesOn++
		} else {
			summary.DevicesOff++
		}
	}

	active, err := s.credentials.GetActive(ctx)
	switch {
	case err == nil:
		summary.ActiveCredential = active.Name
	case !errors.Is(err, interfaces.ErrNotFound):
		return nil, apperror.Internal("failed to load active API configuration", err)
	}
	return summary, nil
}
