package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
)

// Handler receives decoded state events
type Handler func(topic string, event mqtmodels.StateEvent)

// Watcher subscribes to every device's state topic
type Watcher struct {
	cfg        config.MQTTConfig
	brokerURL  string
	handler    Handler
	mqttClient mqtt.Client
	logger     *logger.Logger
}

// NewWatcher creates a watcher; call Run to connect and consume
func NewWatcher(cfg config.MQTTConfig, brokerURL string, handler Handler, log *logger.Logger) *Watcher {
	return &Watcher{
		cfg:       cfg,
		brokerURL: brokerURL,
		handler:   handler,
		logger:    log.WithComponent("mqtt-watch"),
	}
}

// SubscriptionTopic matches the state topic of every device
func (w *Watcher) SubscriptionTopic() string {
	return strings.TrimSuffix(w.cfg.EventTopic, "/") + "/+"
}

// Run connects, subscribes and blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(w.brokerURL).
		SetClientID(w.cfg.ClientID + "-watch").
		SetKeepAlive(w.cfg.KeepAlive).
		SetPingTimeout(w.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true)

	if w.cfg.BrokerUser != "" {
		opts.SetUsername(w.cfg.BrokerUser)
		opts.SetPassword(w.cfg.BrokerPass)
	}
	if w.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		w.logger.Logger.Warn().Err(err).Msg("MQTT connection lost")
	}
	// resubscribe on every (re)connect
	opts.OnConnect = func(c mqtt.Client) {
		topic := w.SubscriptionTopic()
		w.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing")
		if token := c.Subscribe(topic, 1, w.onMessage); token.Wait() && token.Error() != nil {
			w.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Subscribe failed")
		}
	}

	w.mqttClient = mqtt.NewClient(opts)
	if tk := w.mqttClient.Connect(); tk.WaitTimeout(10*time.Second) && tk.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", tk.Error())
	}
	if !w.mqttClient.IsConnected() {
		return fmt.Errorf("timed out connecting to MQTT broker %s", w.brokerURL)
	}

	<-ctx.Done()
	w.mqttClient.Disconnect(500)
	return nil
}

func (w *Watcher) onMessage(_ mqtt.Client, m mqtt.Message) {
	event, err := DecodeStateEvent(m.Payload())
	if err != nil {
		w.logger.Logger.Warn().Err(err).Str("topic", m.Topic()).Msg("Ignoring malformed state event")
		return
	}
	w.handler(m.Topic(), event)
}

// DecodeStateEvent parses a state event payload
func DecodeStateEvent(payload []byte) (mqtmodels.StateEvent, error) {
	var event mqtmodels.StateEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("invalid state event: %w", err)
	}
	if event.DeviceID == "" || event.Status == "" {
		return event, fmt.Errorf("invalid state event: device_id and status are required")
	}
	return event, nil
}
