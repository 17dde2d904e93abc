package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/conversation"
	"github.com/suPer8Hu/docchat/internal/manychat"
	"github.com/suPer8Hu/docchat/internal/metrics"
	"github.com/suPer8Hu/docchat/internal/tenant"
)

type ConversationLog interface {
	Append(ctx context.Context, tenantID, endUserID string, direction conversation.Direction, content string) (*conversation.Message, error)
}

type Answerer interface {
	Generate(ctx context.Context, query, storeID, customInstruction string) string
}

type Deliverer interface {
	Deliver(ctx context.Context, subscriberID, text, token string, buttons ...manychat.Button) (map[string]any, error)
}

// Processor runs one event through resolve, log, answer, log, deliver. Steps
// never overlap or reorder.
type Processor struct {
	tenants   tenant.Resolver
	log       ConversationLog
	answerer  Answerer
	deliverer Deliverer
	logger    zerolog.Logger
}

func NewProcessor(tenants tenant.Resolver, log ConversationLog, answerer Answerer, deliverer Deliverer, logger zerolog.Logger) *Processor {
	return &Processor{
		tenants:   tenants,
		log:       log,
		answerer:  answerer,
		deliverer: deliverer,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process returns the final state: DELIVERED, ABANDONED or FAILED. A non-nil
// error always comes with FAILED.
func (p *Processor) Process(ctx context.Context, ev Event) (State, error) {
	start := time.Now()
	reached, err := p.run(ctx, ev)

	final := reached
	log := p.logger.With().Str("event_id", ev.ID).Str("state", string(reached)).Logger()
	switch {
	case err != nil:
		final = StateFailed
		log.Error().Err(err).Msg("event failed")
	case reached == StateAbandoned:
		log.Info().Str("credential", maskCredential(ev.RoutingCredential)).Msg("event abandoned")
	default:
		log.Debug().Dur("took", time.Since(start)).Msg("event delivered")
	}

	metrics.PipelineEventsTotal.WithLabelValues(string(final)).Inc()
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	return final, err
}

func (p *Processor) run(ctx context.Context, ev Event) (State, error) {
	state := StateReceived

	t, err := p.tenants.Resolve(ctx, ev.RoutingCredential)
	if errors.Is(err, tenant.ErrNotFound) {
		return StateAbandoned, nil
	}
	if err != nil {
		return state, fmt.Errorf("resolve tenant: %w", err)
	}
	if t.DeliveryToken == "" {
		p.logger.Info().Str("tenant_id", t.ID).Msg("no delivery token configured")
		return StateAbandoned, nil
	}
	state = StateTenantResolved

	if _, err := p.log.Append(ctx, t.ID, ev.EndUserID, conversation.DirectionInbound, ev.Text); err != nil {
		return state, fmt.Errorf("log inbound: %w", err)
	}
	state = StateLoggedInbound

	answer := p.answerer.Generate(ctx, ev.Text, t.StoreID, t.CustomInstruction)
	state = StateAnswerGenerated

	if _, err := p.log.Append(ctx, t.ID, ev.EndUserID, conversation.DirectionOutbound, answer); err != nil {
		return state, fmt.Errorf("log outbound: %w", err)
	}
	state = StateLoggedOutbound

	resp, err := p.deliverer.Deliver(ctx, ev.EndUserID, answer, t.DeliveryToken)
	if err != nil {
		metrics.ExternalFailuresTotal.WithLabelValues("manychat").Inc()
		return state, fmt.Errorf("deliver: %w", err)
	}
	p.logger.Debug().Str("event_id", ev.ID).Str("tenant_id", t.ID).Interface("platform", resp).Msg("delivered")
	return StateDelivered, nil
}

// maskCredential keeps enough of a routing credential to correlate log lines
// without writing the usable key.
func maskCredential(cred string) string {
	if len(cred) <= 8 {
		return "***"
	}
	return cred[:4] + "***"
}
