package mesh

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes finished floor plans and their summaries to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	units         Units
	qos           byte
	retain        bool
	summaries     map[string]ScanSummary
	mu            sync.RWMutex
}

// NewPublisher creates a plan publisher. The topic prefix comes from
// MQTT_PUBLISH_PREFIX, then the given prefix, then "floorscan".
// If client is nil, publishing is disabled (for testing)
func NewPublisher(client mqtt.Client, prefix string, units Units) *Publisher {
	if env := os.Getenv("MQTT_PUBLISH_PREFIX"); env != "" {
		prefix = env
	}
	if prefix == "" {
		prefix = "floorscan"
	}
	if units == "" {
		units = UnitsMetric
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		units:         units,
		qos:           0,
		retain:        true, // Retain so late subscribers see the latest plan
		summaries:     make(map[string]ScanSummary),
	}
}

// PublishPlan publishes the full plan to {prefix}/plans/{id} and its summary
// to {prefix}/latest.
func (p *Publisher) PublishPlan(plan *FloorPlan) error {
	if plan == nil {
		return fmt.Errorf("publish plan: %w", ErrMissingInput)
	}
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	data, err := EncodeJSON(plan)
	if err != nil {
		return err
	}
	if err := p.publish(p.PlanTopic(plan.ID), data); err != nil {
		logger().Error("publishing plan failed", "plan", plan.ID, "error", err)
		return err
	}

	summary := Summarize(plan, p.units)
	p.mu.Lock()
	p.summaries[plan.ID] = summary
	p.mu.Unlock()

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := p.publish(p.LatestTopic(), payload); err != nil {
		logger().Error("publishing summary failed", "plan", plan.ID, "error", err)
		return err
	}

	logger().Info("published plan", "plan", plan.ID, "rooms", summary.Rooms, "area", summary.AreaLabel)
	return nil
}

// PublishPlanRemoved clears the retained plan message for id.
func (p *Publisher) PublishPlanRemoved(id string) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}
	p.mu.Lock()
	delete(p.summaries, id)
	p.mu.Unlock()
	// An empty retained payload deletes the retained message.
	return p.publish(p.PlanTopic(id), []byte{})
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// PlanTopic returns the topic carrying the full plan.
func (p *Publisher) PlanTopic(id string) string {
	return fmt.Sprintf("%s/plans/%s", p.publishPrefix, id)
}

// LatestTopic returns the topic carrying the latest summary.
func (p *Publisher) LatestTopic() string {
	return fmt.Sprintf("%s/latest", p.publishPrefix)
}

// GetSummary returns the last published summary for a plan
func (p *Publisher) GetSummary(id string) (ScanSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.summaries[id]
	return s, ok
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
