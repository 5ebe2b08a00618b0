package mqttctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
	"github.com/Agrid-Dev/coldload/internal/ports"
	"github.com/Agrid-Dev/coldload/internal/store"
)

type Config struct {
	// Identity
	ProjectID string

	// MQTT connection
	BrokerURL string
	ClientID  string

	// Topics
	BaseTopic string

	// Behavior
	QoS             byte
	RetainResult    bool
	PublishInterval time.Duration

	Username string
	Password string
}

type Controller struct {
	svc ports.ColdRoomService
	cfg Config

	client mqtt.Client
}

func New(svc ports.ColdRoomService, cfg Config) (*Controller, error) {
	// ---- defaults ----

	if cfg.BrokerURL == "" {
		cfg.BrokerURL = "tcp://localhost:1883"
	}

	if cfg.ProjectID == "" {
		cfg.ProjectID = svc.ProjectID()
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("mqtt: ProjectID is required")
	}
	if cfg.BaseTopic == "" {
		cfg.BaseTopic = "coldload/" + cfg.ProjectID
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "coldload-" + cfg.ProjectID
	}
	if cfg.PublishInterval <= 0 {
		cfg.PublishInterval = 1 * time.Second
	}
	if cfg.QoS > 1 {
		return nil, errors.New("mqtt: QoS must be 0 or 1")
	}
	return &Controller{
		svc: svc,
		cfg: cfg,
	}, nil
}

func (c *Controller) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(c.cfg.BrokerURL).
		SetClientID(c.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	// Subscribe when connected/reconnected.
	opts.OnConnect = func(cl mqtt.Client) {
		// set/<record> and set/<record>/<field>
		topic := c.topic("set/#")
		token := cl.Subscribe(topic, c.cfg.QoS, c.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithFields(log.Fields{"topic": topic, "error": err}).Error("mqtt subscribe")
		}
	}

	c.client = mqtt.NewClient(opts)
	tok := c.client.Connect()
	tok.Wait()
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithFields(log.Fields{"broker": c.cfg.BrokerURL, "base_topic": c.cfg.BaseTopic}).Info("mqtt connected")

	// Publish loop: publish on interval, and only when changed.
	ticker := time.NewTicker(c.cfg.PublishInterval)
	defer ticker.Stop()

	last := c.publishState()

	for {
		select {
		case <-ctx.Done():
			c.client.Disconnect(250)
			return ctx.Err()

		case <-ticker.C:
			cur := c.state()
			if !reflect.DeepEqual(cur, last) {
				last = c.publishState()
			}
		}
	}
}

// state is what the publish loop compares between ticks.
type state struct {
	result coldroom.LoadResult
	err    string
}

func (c *Controller) state() state {
	r, err := c.svc.Result()
	if err != nil {
		return state{err: err.Error()}
	}
	return state{result: r}
}

// publishState publishes the result, or the error when the inputs do not
// calculate, and returns what was published.
func (c *Controller) publishState() state {
	r, err := c.svc.Result()
	if err != nil {
		dto := errorDTO{Error: err.Error()}
		var fe *coldroom.FieldError
		if errors.As(err, &fe) {
			dto.Field = fe.Field
		}
		b, _ := json.Marshal(dto)
		c.client.Publish(c.topic("error"), c.cfg.QoS, c.cfg.RetainResult, b)
		return state{err: err.Error()}
	}

	b, _ := json.Marshal(r)
	c.client.Publish(c.topic("result"), c.cfg.QoS, c.cfg.RetainResult, b)
	c.client.Publish(c.topic("final_load"), c.cfg.QoS, c.cfg.RetainResult, []byte(fmt.Sprintf("%.3f", r.FinalLoad)))
	return state{result: r}
}

type errorDTO struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Command payload format: {"value": ...}
type valueReq[T any] struct {
	Value *T `json:"value"`
}

func (c *Controller) onMessage(_ mqtt.Client, msg mqtt.Message) {
	// topic format: <base>/set/<record>[/<field>]
	t := msg.Topic()
	prefix := strings.TrimRight(c.cfg.BaseTopic, "/") + "/set/"
	if !strings.HasPrefix(t, prefix) {
		return
	}
	parts := strings.Split(strings.TrimPrefix(t, prefix), "/")

	name, err := store.ParseRecordName(parts[0])
	if err != nil {
		log.WithFields(log.Fields{"topic": t, "error": err}).Warn("mqtt command ignored")
		return
	}

	ctx := context.Background()
	payload := msg.Payload()

	switch len(parts) {
	case 1:
		rec, err := decodeRecord(payload)
		if err != nil {
			log.WithFields(log.Fields{"topic": t, "error": err}).Warn("mqtt command ignored")
			return
		}
		err = c.svc.SetRecord(ctx, name, rec)
		c.logCommand(t, err)

	case 2:
		if parts[1] == "" {
			return
		}
		v, err := decodeValueStrict[any](payload)
		if err != nil {
			log.WithFields(log.Fields{"topic": t, "error": err}).Warn("mqtt command ignored")
			return
		}
		err = c.svc.SetField(ctx, name, parts[1], v)
		c.logCommand(t, err)
	}
}

func (c *Controller) logCommand(topic string, err error) {
	if err != nil {
		log.WithFields(log.Fields{"topic": topic, "error": err}).Error("mqtt command failed")
		return
	}
	log.WithField("topic", topic).Debug("mqtt command applied")
}

func (c *Controller) topic(suffix string) string {
	return strings.TrimRight(c.cfg.BaseTopic, "/") + "/" + suffix
}

func decodeRecord(b []byte) (coldroom.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var rec coldroom.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("record payload must be a JSON object")
	}
	return rec, nil
}

func decodeValueStrict[T any](b []byte) (T, error) {
	var zero T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	var req valueReq[T]
	if err := dec.Decode(&req); err != nil {
		return zero, err
	}
	if req.Value == nil {
		return zero, errors.New("missing field 'value'")
	}
	return *req.Value, nil
}
