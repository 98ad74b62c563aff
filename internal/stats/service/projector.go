package service

import (
	"context"

	"servicely/internal/events"
	"servicely/internal/stats/repository"
	"servicely/pkg/kafka"
	"servicely/pkg/logger"
	"servicely/pkg/model"
)

// Projector folds marketplace events into per-day counters.
type Projector struct {
	repo repository.StatsRepository
	log  *logger.Logger
}

func NewProjector(repo repository.StatsRepository, log *logger.Logger) *Projector {
	return &Projector{
		repo: repo,
		log:  log,
	}
}

// Handle is a kafka.MessageHandler. Decode failures are permanent and go
// to the dead letter topic; storage failures are retried.
func (p *Projector) Handle(ctx context.Context, msg kafka.Message) error {
	env, err := events.Decode(msg)
	if err != nil {
		return err
	}

	counters := countersFor(env)
	if len(counters) == 0 {
		p.log.Debug("Event ignored by projection", "type", env.Type, "event_id", msg.GetEventID())
		return nil
	}

	occurred := env.OccurredAt
	if occurred.IsZero() {
		occurred = msg.Timestamp
	}
	day := occurred.UTC().Format(DayLayout)

	applied, err := p.repo.ApplyEvent(ctx, msg.GetEventID(), day, counters)
	if err != nil {
		return kafka.NewTransientError("failed to project event", err)
	}
	if !applied {
		p.log.Info("Event already projected", "event_id", msg.GetEventID(), "type", env.Type)
		return nil
	}

	p.log.Debug("Event projected", "event_id", msg.GetEventID(), "type", env.Type, "day", day)
	return nil
}

func countersFor(env events.Envelope) map[string]int64 {
	switch env.Type {
	case events.BookingCreated:
		return map[string]int64{"created": 1}
	case events.BookingStatusChanged:
		switch env.Status {
		case model.BookingStatusAccepted:
			return map[string]int64{"accepted": 1}
		case model.BookingStatusRejected:
			return map[string]int64{"rejected": 1}
		case model.BookingStatusCompleted:
			return map[string]int64{"completed": 1}
		}
	case events.ReviewSubmitted:
		return map[string]int64{"reviews": 1}
	case events.ChatMessageSent:
		return map[string]int64{"messages": 1}
	}
	return nil
}
