package mqtt

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

type Client struct {
	client mqtt.Client
}

type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	// TLSInsecure skips broker certificate verification on mqtts:// and ssl://.
	TLSInsecure bool
}

// brokerURL maps the mqtt:// and mqtts:// schemes onto the ones paho dials.
func brokerURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		u = "mqtt://mosquitto:1883"
	}
	switch {
	case strings.HasPrefix(u, "mqtt://"):
		u = "tcp://" + strings.TrimPrefix(u, "mqtt://")
	case strings.HasPrefix(u, "mqtts://"):
		u = "ssl://" + strings.TrimPrefix(u, "mqtts://")
	}
	return u
}

func clientOptions(o Options) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	broker := brokerURL(o.BrokerURL)
	opts.AddBroker(broker)

	clientID := strings.TrimSpace(o.ClientID)
	if clientID == "" {
		clientID = "weather-app-" + time.Now().Format("150405.000")
	}
	opts.SetClientID(clientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	if strings.HasPrefix(broker, "ssl://") || strings.HasPrefix(broker, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: o.TLSInsecure})
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	}
	opts.OnConnect = func(_ mqtt.Client) {
		slog.Info("mqtt connected", "broker", broker)
	}
	return opts
}

func Connect(o Options) (*Client, error) {
	c := mqtt.NewClient(clientOptions(o))
	tok := c.Connect()
	if ok := tok.WaitTimeout(15 * time.Second); !ok {
		return nil, errors.New("mqtt connect timed out")
	}
	if err := tok.Error(); err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	tok := c.client.Publish(topic, 1, retained, payload)
	if ok := tok.WaitTimeout(publishTimeout); !ok {
		return errors.New("mqtt publish timed out")
	}
	return tok.Error()
}

func (c *Client) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Disconnect(1000)
}
