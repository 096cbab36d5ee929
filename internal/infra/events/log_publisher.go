package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// ブローカー未設定のときの代替。ログに出すだけ
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	env := newEnvelope(routingKey, data)
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Str("event_id", env.ID).
		Str("routing_key", routingKey).
		RawJSON("event", body).
		Msg("domain event")
	return nil
}
