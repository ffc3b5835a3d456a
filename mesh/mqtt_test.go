package mesh

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMQTT_DisabledWithoutBroker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	client, err := InitMQTT(DefaultConfig(), nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitMQTT_RequiresScanTopic(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")
	cfg := DefaultConfig()
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"
	cfg.MQTT.ScanTopic = ""

	client, err := InitMQTT(cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestMQTTClient_SubscribesOnConnect(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	cfg := DefaultConfig()

	c := NewMQTTClientWithClient(mock, cfg, nil)
	c.onConnect(mock)

	assert.True(t, c.IsConnected())
	assert.True(t, mock.Subscribed(cfg.MQTT.ScanTopic))
}

func TestMQTTClient_SubscribeFailureKeepsConnection(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	mock.SetSubscribeError(errors.New("not authorized"))

	c := NewMQTTClientWithClient(mock, DefaultConfig(), nil)
	c.onConnect(mock)

	assert.True(t, c.IsConnected())
	assert.False(t, mock.Subscribed("floorscan/scans"))
}

func TestMQTTClient_DeliversDecodedBatches(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	var (
		gotTopic string
		gotBatch *MeshBatch
		gotErr   error
		calls    int
	)
	c := NewMQTTClientWithClient(mock, DefaultConfig(), func(topic string, batch *MeshBatch, err error) {
		calls++
		gotTopic, gotBatch, gotErr = topic, batch, err
	})
	c.onConnect(mock)

	mock.Deliver("floorscan/scans", []byte(batchJSON))
	require.Equal(t, 1, calls)
	assert.Equal(t, "floorscan/scans", gotTopic)
	require.NoError(t, gotErr)
	assert.Equal(t, "scan-7", gotBatch.ID)

	mock.Deliver("floorscan/scans", []byte("garbage"))
	require.Equal(t, 2, calls)
	assert.Error(t, gotErr)
	assert.Nil(t, gotBatch)
}

func TestMQTTClient_Disconnect(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	c := NewMQTTClientWithClient(mock, DefaultConfig(), nil)
	c.setConnected(true)

	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.False(t, mock.IsConnected())
	assert.Same(t, mock, c.GetClient())
}

func TestPublisher_PublishPlan(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	mock := NewMockClient()
	mock.SetConnected(true)

	p := NewPublisher(mock, "home/floorscan", UnitsMetric)
	plan := twoRoomPlan()
	require.NoError(t, p.PublishPlan(plan))

	msgs := mock.Published()
	require.Len(t, msgs, 2)

	assert.Equal(t, "home/floorscan/plans/"+plan.ID, msgs[0].Topic)
	assert.True(t, msgs[0].Retain)
	decoded, err := DecodeJSON(msgs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, plan, decoded)

	assert.Equal(t, "home/floorscan/latest", msgs[1].Topic)
	var summary ScanSummary
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &summary))
	assert.Equal(t, 2, summary.Rooms)
	assert.Equal(t, "26.0 m²", summary.AreaLabel)

	cached, ok := p.GetSummary(plan.ID)
	require.True(t, ok)
	assert.Equal(t, "Ground Floor", cached.Title)
}

func TestPublisher_PrefixFromEnv(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "override")
	p := NewPublisher(nil, "ignored", "")

	assert.Equal(t, "override/latest", p.LatestTopic())
	assert.Equal(t, "override/plans/x", p.PlanTopic("x"))
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	assert.Equal(t, "floorscan/latest", NewPublisher(nil, "", "").LatestTopic())
}

func TestPublisher_NotConnected(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	assert.Error(t, NewPublisher(nil, "", UnitsMetric).PublishPlan(SamplePlan()))

	mock := NewMockClient()
	p := NewPublisher(mock, "", UnitsMetric)
	assert.Error(t, p.PublishPlan(SamplePlan()))
	assert.Empty(t, mock.Published())
}

func TestPublisher_PublishError(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	mock := NewMockClient()
	mock.SetConnected(true)
	mock.SetPublishError(errors.New("broker full"))

	err := NewPublisher(mock, "", UnitsMetric).PublishPlan(SamplePlan())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker full")
}

func TestPublisher_PlanRemovedClearsRetained(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")
	mock := NewMockClient()
	mock.SetConnected(true)
	p := NewPublisher(mock, "", UnitsMetric)
	p.SetQoS(1)

	plan := SamplePlan()
	require.NoError(t, p.PublishPlan(plan))
	require.NoError(t, p.PublishPlanRemoved(plan.ID))

	msgs := mock.Published()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "floorscan/plans/"+plan.ID, last.Topic)
	assert.Empty(t, last.Payload)
	assert.Equal(t, byte(1), last.QoS)

	_, ok := p.GetSummary(plan.ID)
	assert.False(t, ok)
}
