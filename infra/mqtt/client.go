// Package mqtt publishes search results on an MQTT broker so that dashboards
// and other services can follow planning runs.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
)

// DefaultTopicPrefix is the root of every published topic.
const DefaultTopicPrefix = "chargeplan/results"

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
	// TopicPrefix defaults to DefaultTopicPrefix.
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`
	// PublishSimulations also sends one message per simulated candidate.
	PublishSimulations bool        `json:"publish_simulations"`
	LWTTopic           string      `json:"lwt_topic"`
	LWTPayload         string      `json:"lwt_payload"`
	LWTQoS             byte        `json:"lwt_qos"`
	LWTRetain          bool        `json:"lwt_retain"`
	MaxRetries         int         `json:"max_retries"`
	BackoffMS          int         `json:"backoff_ms"`
	TLSConfig          *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ResultPublisher is a metrics sink publishing search summaries as JSON on
// <prefix>/<run id> and, optionally, simulations on <prefix>/<run id>/simulations.
type ResultPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	perSim     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewResultPublisher connects to the MQTT broker.
func NewResultPublisher(cfg Config) (*ResultPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "chargeplan-" + uuid.NewString()[:8]
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	p := &ResultPublisher{
		prefix:     strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		perSim:     cfg.PublishSimulations,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	if p.prefix == "" {
		p.prefix = DefaultTopicPrefix
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(5 * time.Second)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
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

// Topic returns the topic of a run.
func (p *ResultPublisher) Topic(runID string) string {
	return p.prefix + "/" + runID
}

// RecordSimulation publishes the candidate when per-simulation publishing is enabled.
func (p *ResultPublisher) RecordSimulation(ev coremetrics.SimulationEvent) error {
	if !p.perSim {
		return nil
	}
	msg := struct {
		Configuration    string  `json:"configuration"`
		Outcome          string  `json:"outcome"`
		InternalFraction float64 `json:"internal_fraction"`
		InstalledPowerKW float64 `json:"installed_power_kw"`
		CapitalCost      float64 `json:"capital_cost"`
	}{ev.Configuration, ev.Outcome, ev.InternalFraction, ev.InstalledPowerKW, ev.CapitalCost}
	return p.publishJSON(p.Topic(ev.RunID)+"/simulations", msg, false)
}

// RecordOptimization publishes the search summary.
func (p *ResultPublisher) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	return p.publishJSON(p.Topic(ev.RunID), ev, p.retain)
}

func (p *ResultPublisher) publishJSON(topic string, v any, retain bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Flush disconnects from the broker once the run is over.
func (p *ResultPublisher) Flush() error {
	p.Disconnect()
	return nil
}

// Disconnect gracefully closes the MQTT connection.
func (p *ResultPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
