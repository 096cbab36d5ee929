package events

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogPublisher_WritesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := l.WithContext(context.Background())

	err := NewLogPublisher().Publish(ctx, "order.placed", map[string]int64{"order_id": 7})
	require.NoError(t, err)

	var line struct {
		RoutingKey string   `json:"routing_key"`
		EventID    string   `json:"event_id"`
		Event      Envelope `json:"event"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "order.placed", line.RoutingKey)
	assert.NotEmpty(t, line.EventID)
	assert.Equal(t, line.EventID, line.Event.ID)
	assert.Equal(t, "order.placed", line.Event.Type)
	assert.Equal(t, map[string]interface{}{"order_id": float64(7)}, line.Event.Data)
}
