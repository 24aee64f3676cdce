package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/doorsense/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout also bounds subscribe and unsubscribe acknowledgements.
	defaultPublishTimeout = 5 * time.Second

	defaultDisconnectQuiesce = 500 // milliseconds

	// defaultKeepAlive bounds how long a dead backend still looks online
	// before the broker publishes its will.
	defaultKeepAlive = 30 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12

	serviceName = "doorsense"
)

// Values of statusMessage.Status and statusMessage.Reason.
const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonShutdown   = "graceful_shutdown"
	reasonConnection = "unexpected_disconnect"
)

// statusMessage is the retained payload on a backend's system status topic.
type statusMessage struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// buildClientOptions maps the mqtt section of config.yaml onto paho options.
// Sensor reports are independent of each other, so handlers are dispatched
// without ordering and no broker session is kept between connections.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(defaultConnectTimeout).
		SetKeepAlive(defaultKeepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	return opts
}

// configureLWT registers the retained offline status the broker publishes on
// the client's own status topic if the connection drops without a Close.
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.MQTTConfig) {
	payload := statusPayload(cfg.Broker.ClientID, statusOffline, reasonConnection, time.Now())
	opts.SetBinaryWill(Topics{}.SystemStatus(cfg.Broker.ClientID), payload, byte(cfg.QoS), true)
}

// statusPayload encodes a statusMessage. at is reported in UTC.
func statusPayload(clientID, status, reason string, at time.Time) []byte {
	payload, err := json.Marshal(statusMessage{
		Service:   serviceName,
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		// Only string fields; Marshal cannot fail.
		panic(fmt.Sprintf("mqtt: encoding status message: %v", err))
	}
	return payload
}
