package event

import (
	"fmt"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	pusher "github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"
)

// PusherEvent pushes bet lifecycle events to per-user channels through
// Pusher Channels.
type PusherEvent struct {
	log    *slog.Logger
	client *pusher.Client
}

func NewPusherEvent(log *slog.Logger, appID, key, secret, cluster string) *PusherEvent {
	return &PusherEvent{
		log: log,
		client: &pusher.Client{
			AppID:   appID,
			Key:     key,
			Secret:  secret,
			Cluster: cluster,
		},
	}
}

func (p *PusherEvent) Publish(channel, event string, data any) error {
	const op = "handlers.event.Publish"

	if err := p.client.Trigger(channel, event, data); err != nil {
		p.log.Error("failed to trigger event",
			sl.String("channel", channel),
			sl.String("event", event),
			sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
