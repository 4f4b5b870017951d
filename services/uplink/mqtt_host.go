// services/uplink/mqtt_host.go
//go:build !(rp2040 || rp2350)

package uplink

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"envnode-go/errcode"
	"envnode-go/types"
)

func init() {
	RegisterTransport("mqtt", newMQTTTransport)
}

type mqttTransport struct {
	cfg types.MQTTConfig
}

func newMQTTTransport(cfg types.TransportConfig) (Transport, error) {
	if cfg.MQTT == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "uplink", Msg: "mqtt transport requires mqtt config"}
	}
	return &mqttTransport{cfg: *cfg.MQTT}, nil
}

func (t *mqttTransport) String() string { return "mqtt" }

func (t *mqttTransport) Open(ctx context.Context) (Link, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(false) // runLink owns the redial policy

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &mqttLink{client: c, prefix: t.cfg.TopicPrefix, qos: t.cfg.QoS}, nil
}

type mqttLink struct {
	client mqtt.Client
	prefix string
	qos    byte
}

func (l *mqttLink) Publish(topic string, payload []byte) error {
	if l.prefix != "" {
		topic = l.prefix + "/" + topic
	}
	token := l.client.Publish(topic, l.qos, false, payload)
	token.Wait()
	return token.Error()
}

func (l *mqttLink) Close() error {
	l.client.Disconnect(250)
	return nil
}
