package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dbw/infra/logger"
)

// Topics maps the node's logical channels to broker topics.
type Topics struct {
	Enable          string `json:"enable"`
	CurrentVelocity string `json:"current_velocity"`
	TwistCmd        string `json:"twist_cmd"`
	Throttle        string `json:"throttle_cmd"`
	Brake           string `json:"brake_cmd"`
	Steering        string `json:"steering_cmd"`
}

// SetDefaults applies the vehicle namespace defaults.
func (t *Topics) SetDefaults() {
	if t.Enable == "" {
		t.Enable = "vehicle/dbw_enabled"
	}
	if t.CurrentVelocity == "" {
		t.CurrentVelocity = "current_velocity"
	}
	if t.TwistCmd == "" {
		t.TwistCmd = "twist_cmd"
	}
	if t.Throttle == "" {
		t.Throttle = "vehicle/throttle_cmd"
	}
	if t.Brake == "" {
		t.Brake = "vehicle/brake_cmd"
	}
	if t.Steering == "" {
		t.Steering = "vehicle/steering_cmd"
	}
}

// Logical channel keys for the per-channel QoS map.
const (
	QoSEnable   = "enable"
	QoSVelocity = "velocity"
	QoSTwist    = "twist"
	QoSCommand  = "command"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	AuthMethod string `json:"auth_method"`
	// QoS maps logical channels to MQTT QoS levels, keyed by QoSEnable,
	// QoSVelocity and QoSTwist for the input subscriptions and QoSCommand
	// for the actuator publishes. Missing keys default to QoS 0.
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	Topics     Topics          `json:"topics"`
	TLSConfig  *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dbw-" + uuid.NewString()
	}
	c.Topics.SetDefaults()
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Client wraps Eclipse Paho for the node's input and output channels.
type Client struct {
	cli    pahoClient
	topics Topics
	qos    map[string]byte
	logger logger.Logger

	mu       sync.Mutex
	handlers *InputHandlers
}

// NewClient connects to the MQTT broker. Input subscriptions installed via
// SubscribeInputs are re-established automatically after a reconnect.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		topics: cfg.Topics,
		qos:    cfg.QoS,
		logger: logger.New("mqtt_client"),
	}
	opts.OnConnect = func(_ paho.Client) {
		c.logger.Infof("MQTT connected")
		c.mu.Lock()
		h := c.handlers
		c.mu.Unlock()
		if h != nil {
			if err := c.subscribeInputs(*h); err != nil {
				c.logger.Errorf("resubscribe error: %v", err)
			}
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		c.logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		c.logger.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.cli = cli
	return c, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (c *Client) qosFor(key string) byte {
	if q, ok := c.qos[key]; ok {
		return q
	}
	return 0
}

// Disconnect gracefully closes the MQTT connection.
func (c *Client) Disconnect() {
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
}
