package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	container "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Container"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
	api_models "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models/api"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: config.StoreDriverMemory, Name: "test"},
		Auth: config.AuthConfig{
			JWTSecretKey:         "test-secret",
			AccessTokenDuration:  time.Minute,
			RefreshTokenDuration: time.Hour,
			BcryptCost:           bcrypt.MinCost,
			PasswordMinLength:    6,
		},
		ThingSpeak: config.ThingSpeakConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
	}
}

// sharedContainer hands every command the same in-memory container
func sharedContainer(cfg *config.Config) ContainerFactory {
	ctr := container.NewApiContainerWithConfig(cfg, logger.NewNopLogger())
	return func() (*container.ApiContainer, error) { return ctr, nil }
}

func run(t *testing.T, factory ContainerFactory, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetupThenAnalytics(t *testing.T) {
	factory := sharedContainer(testConfig())

	out, err := run(t, factory, "setup", "--email", "Admin@Example.com", "--name", "Admin", "--password", "secret1", "--api-key", "WKEY")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !strings.Contains(out, "admin@example.com") || !strings.Contains(out, "Credential") {
		t.Errorf("setup output = %q", out)
	}

	if _, err := run(t, factory, "setup", "--email", "b@example.com", "--name", "B", "--password", "secret1"); err == nil {
		t.Error("second setup should be refused")
	}

	if _, err := run(t, factory, "create-user", "--email", "op@example.com", "--name", "Op", "--password", "secret1", "--role", "operator"); err != nil {
		t.Fatalf("create-user: %v", err)
	}

	out, err = run(t, factory, "analytics")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	var summary api_models.Analytics
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("analytics output is not JSON: %v\n%s", err, out)
	}
	if summary.TotalUsers != 2 || summary.UsersByRole["operator"] != 1 || summary.TotalCredentials != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestCreateUser_RequiresFlags(t *testing.T) {
	if _, err := run(t, sharedContainer(testConfig()), "create-user", "--name", "x"); err == nil {
		t.Error("expected missing --email to fail")
	}
}

func TestHashPassword(t *testing.T) {
	factory := sharedContainer(testConfig())

	out, err := run(t, factory, "hash-password", "secret1")
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("secret1")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}

	if _, err := run(t, factory, "hash-password", "abc"); err == nil {
		t.Error("expected short password to be rejected")
	}
}

func TestEventsWatch_RequiresBroker(t *testing.T) {
	if _, err := run(t, sharedContainer(testConfig()), "events", "watch"); err == nil || !strings.Contains(err.Error(), "BROKER_HOST") {
		t.Errorf("err = %v, want BROKER_HOST error", err)
	}
}

func TestPrintEvent(t *testing.T) {
	var out bytes.Buffer
	printEvent(&out)("streetlights/state/d1", mqtmodels.StateEvent{
		DeviceID: "d1", LedNumber: 3, Field: "field3", Status: "ON", ChangedBy: "u1", Source: mqtmodels.SourceToggle,
		Ts: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	line := out.String()
	for _, want := range []string{"2026-01-02T03:04:05Z", "ON", "led=3", "field3", "d1", "u1", "toggle"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}
