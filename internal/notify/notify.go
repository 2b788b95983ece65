// Package notify broadcasts repair changes so that every instance can drop
// its cached maintenance lists.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Repair actions.
const (
	ActionSaved     = "saved"
	ActionCompleted = "completed"
)

// RepairEvent describes a change to the repair records of one request.
type RepairEvent struct {
	Code     string    `json:"code"`
	Action   string    `json:"action"`
	TaskIDs  []int     `json:"task_ids,omitempty"`
	Username string    `json:"username,omitempty"`
	Origin   string    `json:"origin,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier publishes repair changes.
type Notifier interface {
	RepairChanged(ctx context.Context, ev RepairEvent) error
	Close()
}

// Invalidator drops cached lists.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) RepairChanged(context.Context, RepairEvent) error { return nil }
func (Nop) Close()                                           {}

// Config configures an MQTTNotifier.
type Config struct {
	Broker      string // tcp://host:1883
	ClientID    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes events to <prefix>/repairs/<code>.
type MQTTNotifier struct {
	client   mqttClient
	prefix   string
	clientID string
	qos      byte
	timeout  time.Duration
	log      *log.Entry
}

// NewMQTT connects to the broker.
func NewMQTT(cfg Config) (*MQTTNotifier, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("fleetfix-%d", time.Now().UnixNano())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := log.WithField("component", "notify")
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.WithError(err).Warn("mqtt connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	logger.WithField("broker", cfg.Broker).Info("connected to mqtt broker")

	return newMQTTNotifier(client, cfg), nil
}

func newMQTTNotifier(client mqttClient, cfg Config) *MQTTNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &MQTTNotifier{
		client:   client,
		prefix:   strings.TrimRight(cfg.TopicPrefix, "/"),
		clientID: cfg.ClientID,
		qos:      cfg.QoS,
		timeout:  cfg.Timeout,
		log:      log.WithField("component", "notify"),
	}
}

// Topic returns the topic for a maintenance request code.
func (n *MQTTNotifier) Topic(code string) string {
	return n.prefix + "/repairs/" + strings.ReplaceAll(code, "/", "_")
}

func (n *MQTTNotifier) RepairChanged(ctx context.Context, ev RepairEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	ev.Origin = n.clientID
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode repair event: %w", err)
	}
	return n.wait(ctx, n.client.Publish(n.Topic(ev.Code), n.qos, false, payload))
}

// Subscribe purges inv whenever another instance reports a change.
func (n *MQTTNotifier) Subscribe(inv Invalidator) error {
	topic := n.prefix + "/repairs/+"
	token := n.client.Subscribe(topic, n.qos, n.handler(inv))
	if err := n.wait(context.Background(), token); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	n.log.WithField("topic", topic).Info("listening for repair changes")
	return nil
}

func (n *MQTTNotifier) handler(inv Invalidator) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var ev RepairEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			n.log.WithError(err).WithField("topic", msg.Topic()).Warn("ignoring malformed repair event")
			return
		}
		// our own saves already purged the cache
		if ev.Origin != "" && ev.Origin == n.clientID {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := inv.InvalidateAll(ctx); err != nil {
			n.log.WithError(err).Warn("cache invalidation failed")
			return
		}
		n.log.WithFields(log.Fields{"code": ev.Code, "action": ev.Action}).Debug("cache invalidated by remote change")
	}
}

func (n *MQTTNotifier) wait(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(n.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("mqtt operation timed out")
	}
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}
