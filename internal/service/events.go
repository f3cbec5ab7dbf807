package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	subjectScoresCompleted    = "scores.completed"
	subjectDecisionsCompleted = "decisions.completed"
	pipelineQueueGroup        = "adhyayan-pipeline"
)

// ScoresCompletedEvent is emitted when a submission finishes a scoring run.
type ScoresCompletedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	ChapterID    uint      `json:"chapter_id"`
	Evaluated    bool      `json:"evaluated"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// DecisionCompletedEvent is emitted after a decision run persists.
type DecisionCompletedEvent struct {
	ChapterID            uint      `json:"chapter_id"`
	CourseID             uint      `json:"course_id"`
	RunID                string    `json:"run_id"`
	Status               string    `json:"status"`
	SelectedSubmissionID *uint     `json:"selected_submission_id"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// EventBus decouples the pipeline stages: scoring publishes, the decision
// engine consumes; the decision engine publishes, the release gate consumes.
type EventBus interface {
	PublishScoresCompleted(ctx context.Context, event ScoresCompletedEvent) error
	PublishDecisionCompleted(ctx context.Context, event DecisionCompletedEvent) error
}

type natsEventBus struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNATSEventBus constructs an event bus over a NATS connection. A nil
// connection yields a bus that drops events, which keeps single-process
// deployments working without a broker.
func NewNATSEventBus(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventBus {
	if subjectBase == "" {
		subjectBase = "adhyayan"
	}
	return &natsEventBus{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "event_bus").Logger(),
	}
}

func (b *natsEventBus) PublishScoresCompleted(ctx context.Context, event ScoresCompletedEvent) error {
	return b.publish(b.subjectBase+"."+subjectScoresCompleted, event)
}

func (b *natsEventBus) PublishDecisionCompleted(ctx context.Context, event DecisionCompletedEvent) error {
	return b.publish(b.subjectBase+"."+subjectDecisionsCompleted, event)
}

func (b *natsEventBus) publish(subject string, event interface{}) error {
	if b.conn == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(subject, payload); err != nil {
		return err
	}
	return nil
}

// PipelineConsumer subscribes the downstream stages to the event chain.
type PipelineConsumer struct {
	conn        *nats.Conn
	subjectBase string
	decisions   DecisionService
	releases    ReleaseService
	logger      zerolog.Logger
}

// NewPipelineConsumer wires decision and release handling to the bus.
func NewPipelineConsumer(conn *nats.Conn, subjectBase string, decisions DecisionService, releases ReleaseService, logger zerolog.Logger) *PipelineConsumer {
	if subjectBase == "" {
		subjectBase = "adhyayan"
	}
	return &PipelineConsumer{
		conn:        conn,
		subjectBase: subjectBase,
		decisions:   decisions,
		releases:    releases,
		logger:      logger.With().Str("component", "pipeline_consumer").Logger(),
	}
}

// Start registers the queue subscriptions and drains them once ctx ends.
func (c *PipelineConsumer) Start(ctx context.Context) {
	if c.conn == nil {
		return
	}

	scoresSub, err := c.conn.QueueSubscribe(c.subjectBase+"."+subjectScoresCompleted, pipelineQueueGroup, func(msg *nats.Msg) {
		c.handleScoresCompleted(ctx, msg.Data)
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to subscribe to scores subject")
		return
	}

	decisionsSub, err := c.conn.QueueSubscribe(c.subjectBase+"."+subjectDecisionsCompleted, pipelineQueueGroup, func(msg *nats.Msg) {
		c.handleDecisionCompleted(ctx, msg.Data)
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to subscribe to decisions subject")
		_ = scoresSub.Drain()
		return
	}

	go func() {
		<-ctx.Done()
		if err := scoresSub.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain scores subscription")
		}
		if err := decisionsSub.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to drain decisions subscription")
		}
	}()
}

func (c *PipelineConsumer) handleScoresCompleted(ctx context.Context, payload []byte) {
	var event ScoresCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Warn().Err(err).Msg("invalid scores event payload")
		return
	}
	if !event.Evaluated {
		return
	}

	run, err := c.decisions.TriggerIfDue(ctx, event.ChapterID)
	if err != nil {
		c.logger.Error().Err(err).Uint("chapter_id", event.ChapterID).Msg("deadline-triggered decision failed")
		return
	}
	if run != nil {
		c.logger.Info().
			Uint("chapter_id", event.ChapterID).
			Str("run_id", run.RunID).
			Str("status", run.Status).
			Msg("decision run triggered by completed scores")
	}
}

func (c *PipelineConsumer) handleDecisionCompleted(ctx context.Context, payload []byte) {
	var event DecisionCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.logger.Warn().Err(err).Msg("invalid decision event payload")
		return
	}
	if event.CourseID == 0 {
		return
	}

	if _, err := c.releases.EvaluateRelease(ctx, event.CourseID); err != nil {
		c.logger.Error().Err(err).Uint("course_id", event.CourseID).Msg("release evaluation failed")
	}
}
