package job

import (
	"github.com/cryptomagiciian/casino-backend-sub001/internal/bet"
	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
)

// SendEventJob publishes one event off the request path.
type SendEventJob struct {
	log       *slog.Logger
	publisher bet.Publisher
	channel   string
	event     string
	data      any
}

func NewSendEventJob(log *slog.Logger, publisher bet.Publisher, channel, event string, data any) *SendEventJob {
	return &SendEventJob{
		log:       log,
		publisher: publisher,
		channel:   channel,
		event:     event,
		data:      data,
	}
}

func (j *SendEventJob) Execute() {
	if err := j.publisher.Publish(j.channel, j.event, j.data); err != nil {
		j.log.Error("failed to publish event",
			sl.String("event", j.event),
			sl.Err(err))
	}
}

// AsyncPublisher queues publishes onto the worker pool so handlers never
// wait on the event backend.
type AsyncPublisher struct {
	log       *slog.Logger
	publisher bet.Publisher
	queue     JobQueue
}

func NewAsyncPublisher(log *slog.Logger, publisher bet.Publisher, queue JobQueue) *AsyncPublisher {
	return &AsyncPublisher{log: log, publisher: publisher, queue: queue}
}

func (p *AsyncPublisher) Publish(channel, event string, data any) error {
	Dispatch(p.queue, NewSendEventJob(p.log, p.publisher, channel, event, data), 0)

	return nil
}
