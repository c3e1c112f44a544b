package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Config"
	logger "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Logger"
	mqtmodels "gitlab.com/maplesense1/slc.control_server/src/production/SLC.Models"
)

// Publisher announces acknowledged device state changes. Publishing is best
// effort: a failure is logged and never undoes a committed status.
type Publisher interface {
	PublishState(ctx context.Context, event mqtmodels.StateEvent)
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishState(context.Context, mqtmodels.StateEvent) {}

const publishTimeout = 2 * time.Second

// MQTTPublisher publishes state events to <EventTopic>/<device id>
type MQTTPublisher struct {
	cfg        config.MQTTConfig
	brokerURL  string
	mqttClient mqtt.Client
	logger     *logger.Logger
}

// NewMQTTPublisher creates a publisher; call Start to connect
func NewMQTTPublisher(cfg config.MQTTConfig, brokerURL string, log *logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		cfg:       cfg,
		brokerURL: brokerURL,
		logger:    log.WithComponent("mqtt"),
	}
}

// Start connects to the broker. The client keeps reconnecting in the background.
func (p *MQTTPublisher) Start() error {
	opts := mqtt.NewClientOptions().
		AddBroker(p.brokerURL).
		SetClientID(p.cfg.ClientID).
		SetKeepAlive(p.cfg.KeepAlive).
		SetPingTimeout(p.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true)

	if p.cfg.BrokerUser != "" {
		opts.SetUsername(p.cfg.BrokerUser)
		opts.SetPassword(p.cfg.BrokerPass)
	}

	if p.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		p.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(_ mqtt.Client) {
		p.logger.Logger.Info().Str("broker", p.brokerURL).Msg("MQTT connected")
	}

	p.mqttClient = mqtt.NewClient(opts)
	// With ConnectRetry the token only completes once connected, so do not block startup on it
	if tk := p.mqttClient.Connect(); tk.WaitTimeout(5*time.Second) && tk.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", tk.Error())
	}
	return nil
}

// Stop disconnects from the broker
func (p *MQTTPublisher) Stop() {
	if p.mqttClient != nil && p.mqttClient.IsConnected() {
		p.mqttClient.Disconnect(500)
	}
}

// IsConnected reports broker connectivity
func (p *MQTTPublisher) IsConnected() bool {
	return p.mqttClient != nil && p.mqttClient.IsConnected()
}

// Topic returns the topic a device's events are published on
func (p *MQTTPublisher) Topic(deviceID string) string {
	return fmt.Sprintf("%s/%s", p.cfg.EventTopic, deviceID)
}

// PublishState publishes a retained state event for the device
func (p *MQTTPublisher) PublishState(ctx context.Context, event mqtmodels.StateEvent) {
	if !p.IsConnected() {
		p.logger.Logger.Warn().Str("device_id", event.DeviceID).Msg("MQTT not connected, dropping state event")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Logger.Error().Err(err).Msg("Failed to marshal state event")
		return
	}

	topic := p.Topic(event.DeviceID)
	token := p.mqttClient.Publish(topic, 1, true, payload)

	wait := publishTimeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
		wait = time.Until(deadline)
	}
	if !token.WaitTimeout(wait) {
		p.logger.Logger.Warn().Str("topic", topic).Msg("Timed out publishing state event")
		return
	}
	if token.Error() != nil {
		p.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to publish state event")
		return
	}
	p.logger.Logger.Debug().Str("topic", topic).Str("status", event.Status).Msg("Published state event")
}
