package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
)

func TestMQTTPublisher_Topic(t *testing.T) {
	p := NewMQTTPublisher(config.MQTTConfig{EventTopic: "streetlights/state"}, "tcp://localhost:1883", logger.NewNopLogger())
	if got := p.Topic("dev-1"); got != "streetlights/state/dev-1" {
		t.Errorf("Topic() = %q", got)
	}
}

func TestMQTTPublisher_DisconnectedDropsEvent(t *testing.T) {
	p := NewMQTTPublisher(config.MQTTConfig{EventTopic: "streetlights/state"}, "tcp://localhost:1883", logger.NewNopLogger())
	if p.IsConnected() {
		t.Fatal("publisher should not be connected before Start")
	}
	// must not block or panic
	p.PublishState(context.Background(), mqtmodels.StateEvent{DeviceID: "d", Status: "on"})
	p.Stop()
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.PublishState(context.Background(), mqtmodels.StateEvent{})
}

func TestWatcher_SubscriptionTopic(t *testing.T) {
	for _, base := range []string{"streetlights/state", "streetlights/state/"} {
		w := NewWatcher(config.MQTTConfig{EventTopic: base}, "tcp://localhost:1883", nil, logger.NewNopLogger())
		if got := w.SubscriptionTopic(); got != "streetlights/state/+" {
			t.Errorf("SubscriptionTopic(%q) = %q", base, got)
		}
	}
}

func TestDecodeStateEvent(t *testing.T) {
	want := mqtmodels.StateEvent{
		DeviceID:  "dev-1",
		LedNumber: 3,
		Field:     "field3",
		Status:    "on",
		ChangedBy: "op-1",
		Source:    mqtmodels.SourceToggle,
		Ts:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, _ := json.Marshal(want)

	got, err := DecodeStateEvent(payload)
	if err != nil {
		t.Fatalf("DecodeStateEvent() error = %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	for _, bad := range []string{"not json", `{"status":"on"}`, `{"device_id":"d"}`} {
		if _, err := DecodeStateEvent([]byte(bad)); err == nil {
			t.Errorf("DecodeStateEvent(%q) should fail", bad)
		}
	}
}
