package events

import (
	"context"

	"github.com/talentvault/talentvault-backend/internal/candidate/domain"
	"github.com/talentvault/talentvault-backend/pkg/httputil"
	"github.com/talentvault/talentvault-backend/pkg/logger"
	"github.com/talentvault/talentvault-backend/pkg/messaging"
)

// EventPublisher is the bus side of messaging.Publisher
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Publisher announces candidate lifecycle events
type Publisher interface {
	PublishCandidateParsed(ctx context.Context, c *domain.Candidate, rec *domain.ExtractedRecord)
}

// NopPublisher drops every event; used when RabbitMQ is disabled
type NopPublisher struct{}

func (NopPublisher) PublishCandidateParsed(context.Context, *domain.Candidate, *domain.ExtractedRecord) {
}

// CandidateEventPublisher publishes candidate-related events
type CandidateEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewCandidateEventPublisher binds a publisher to the candidate exchange
func NewCandidateEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*CandidateEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeCandidateEvents, "candidate-service", log)
	if err != nil {
		return nil, err
	}

	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(p EventPublisher, log *logger.Logger) *CandidateEventPublisher {
	return &CandidateEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishCandidateParsed publishes a candidate parsed event correlated with
// the upload request. Failures are logged only.
func (p *CandidateEventPublisher) PublishCandidateParsed(ctx context.Context, c *domain.Candidate, rec *domain.ExtractedRecord) {
	if messaging.CorrelationID(ctx) == "" {
		if requestID := httputil.GetRequestID(ctx); requestID != "" {
			ctx = messaging.WithCorrelationID(ctx, requestID)
		}
	}

	data := messaging.CandidateParsedEvent{
		CandidateID:      c.ID,
		SourceFilename:   c.SourceFilename,
		Name:             c.Name,
		Email:            c.Email,
		Skills:           c.Skills.Matched,
		Warnings:         rec.Warnings,
		ProcessingTimeMs: rec.ProcessingTimeMs,
	}

	if err := p.publisher.Publish(ctx, messaging.EventCandidateParsed, data); err != nil {
		p.logger.Error().Err(err).Int64("candidate_id", c.ID).Msg("failed to publish candidate parsed event")
	}
}
