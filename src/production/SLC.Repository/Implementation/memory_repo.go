package implementation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	auth_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/auth"
	hardware_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/hardware"
	telemetry_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/telemetry"
	interfaces "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Repository/Interfaces"
)

// In-memory repositories back STORE_DRIVER=memory and the test suites.
// Every read returns a copy so callers cannot mutate stored state.

type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]auth_models.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]auth_models.Account)}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *auth_models.Account) (*auth_models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.Email = auth_models.NormalizeEmail(account.Email)
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return nil, interfaces.ErrDuplicate
		}
	}
	if account.AccountID == "" {
		account.AccountID = uuid.New().String()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	r.accounts[account.AccountID] = *account
	return account, nil
}

func (r *MemoryAccountRepository) GetByID(_ context.Context, accountID string) (*auth_models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[accountID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &account, nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*auth_models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = auth_models.NormalizeEmail(email)
	for _, account := range r.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *MemoryAccountRepository) GetAll(ctx context.Context) ([]*auth_models.Account, error) {
	return r.filter(func(*auth_models.Account) bool { return true }), nil
}

func (r *MemoryAccountRepository) GetByRole(_ context.Context, role auth_models.Role) ([]*auth_models.Account, error) {
	return r.filter(func(a *auth_models.Account) bool { return a.Role == role }), nil
}

func (r *MemoryAccountRepository) CountByRole(ctx context.Context, role auth_models.Role) (int64, error) {
	accounts, _ := r.GetByRole(ctx, role)
	return int64(len(accounts)), nil
}

func (r *MemoryAccountRepository) filter(keep func(*auth_models.Account) bool) []*auth_models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*auth_models.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		a := account
		if keep(&a) {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryAccountRepository) Update(_ context.Context, account *auth_models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.AccountID]; !ok {
		return interfaces.ErrNotFound
	}
	account.Email = auth_models.NormalizeEmail(account.Email)
	for id, existing := range r.accounts {
		if id != account.AccountID && existing.Email == account.Email {
			return interfaces.ErrDuplicate
		}
	}
	account.UpdatedAt = time.Now().UTC()
	r.accounts[account.AccountID] = *account
	return nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[accountID]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.accounts, accountID)
	return nil
}

type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]hardware_models.Device
}

func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{devices: make(map[string]hardware_models.Device)}
}

func (r *MemoryDeviceRepository) Create(_ context.Context, device *hardware_models.Device) (*hardware_models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.devices {
		if existing.LedNumber == device.LedNumber {
			return nil, interfaces.ErrDuplicate
		}
	}
	if device.DeviceID == "" {
		device.DeviceID = uuid.New().String()
	}
	now := time.Now().UTC()
	device.CreatedAt = now
	device.UpdatedAt = now
	r.devices[device.DeviceID] = *device
	return device, nil
}

func (r *MemoryDeviceRepository) GetByID(_ context.Context, deviceID string) (*hardware_models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &device, nil
}

func (r *MemoryDeviceRepository) List(_ context.Context, filter interfaces.DeviceFilter) ([]*hardware_models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*hardware_models.Device, 0, len(r.devices))
	for _, device := range r.devices {
		if filter.Scope != "" && device.Scope != filter.Scope {
			continue
		}
		if filter.OwnerID != "" && device.OwnerID != filter.OwnerID {
			continue
		}
		d := device
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LedNumber < out[j].LedNumber })
	return out, nil
}

func (r *MemoryDeviceRepository) Update(_ context.Context, device *hardware_models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[device.DeviceID]
	if !ok {
		return interfaces.ErrNotFound
	}
	for id, existing := range r.devices {
		if id != device.DeviceID && existing.LedNumber == device.LedNumber {
			return interfaces.ErrDuplicate
		}
	}
	device.Status = stored.Status
	device.CreatedAt = stored.CreatedAt
	device.UpdatedAt = time.Now().UTC()
	r.devices[device.DeviceID] = *device
	return nil
}

func (r *MemoryDeviceRepository) UpdateStatus(_ context.Context, deviceID string, status hardware_models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device, ok := r.devices[deviceID]
	if !ok {
		return interfaces.ErrNotFound
	}
	device.Status = status
	device.UpdatedAt = time.Now().UTC()
	r.devices[deviceID] = device
	return nil
}

func (r *MemoryDeviceRepository) Delete(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[deviceID]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.devices, deviceID)
	return nil
}

type MemoryCredentialRepository struct {
	mu          sync.RWMutex
	credentials map[string]telemetry_models.Credential
	seq         int64
}

func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{credentials: make(map[string]telemetry_models.Credential)}
}

func (r *MemoryCredentialRepository) Create(_ context.Context, credential *telemetry_models.Credential) (*telemetry_models.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if credential.CredentialID == "" {
		credential.CredentialID = uuid.New().String()
	}
	// nanosecond offsets keep creation order stable when the clock is coarse
	r.seq++
	now := time.Now().UTC().Add(time.Duration(r.seq))
	credential.CreatedAt = now
	credential.UpdatedAt = now
	r.credentials[credential.CredentialID] = *credential
	return credential, nil
}

func (r *MemoryCredentialRepository) GetByID(_ context.Context, credentialID string) (*telemetry_models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	credential, ok := r.credentials[credentialID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &credential, nil
}

func (r *MemoryCredentialRepository) GetActive(_ context.Context) (*telemetry_models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, credential := range r.credentials {
		if credential.Active {
			return &credential, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *MemoryCredentialRepository) List(_ context.Context) ([]*telemetry_models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*telemetry_models.Credential, 0, len(r.credentials))
	for _, credential := range r.credentials {
		c := credential
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryCredentialRepository) Update(_ context.Context, credential *telemetry_models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.credentials[credential.CredentialID]
	if !ok {
		return interfaces.ErrNotFound
	}
	credential.Active = stored.Active
	credential.CreatedBy = stored.CreatedBy
	credential.CreatedAt = stored.CreatedAt
	credential.UpdatedAt = time.Now().UTC()
	r.credentials[credential.CredentialID] = *credential
	return nil
}

func (r *MemoryCredentialRepository) SetActive(_ context.Context, credentialID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.credentials[credentialID]; !ok {
		return interfaces.ErrNotFound
	}
	for id, credential := range r.credentials {
		credential.Active = id == credentialID
		r.credentials[id] = credential
	}
	return nil
}

func (r *MemoryCredentialRepository) Delete(_ context.Context, credentialID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.credentials[credentialID]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.credentials, credentialID)
	return nil
}
