package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/paulexconde/formbuilder/internal/models"
	"github.com/paulexconde/formbuilder/internal/pkg/logger"
	"github.com/paulexconde/formbuilder/internal/pkg/workerpool"
)

// Submission is the terminal output of a render session.
type Submission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"form_id"`
	SessionID   string         `json:"session_id"`
	Answers     models.Answers `json:"answers"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Submitter receives finished answer maps.
type Submitter interface {
	Submit(ctx context.Context, s Submission) error
	Close() error
}

// LogSubmitter only logs the answers.
type LogSubmitter struct {
	log logger.Logger
}

func NewLogSubmitter(log logger.Logger) *LogSubmitter {
	return &LogSubmitter{log: log}
}

func (l *LogSubmitter) Submit(ctx context.Context, s Submission) error {
	l.log.InfoContext(ctx, "answers submitted",
		"submission_id", s.ID,
		"form_id", s.FormID,
		"session_id", s.SessionID,
		"answers", s.Answers,
	)
	return nil
}

func (l *LogSubmitter) Close() error { return nil }

// PublisherSubmitter publishes each submission as a JSON message on topic.
type PublisherSubmitter struct {
	publisher message.Publisher
	topic     string
	log       logger.Logger
}

func NewPublisherSubmitter(publisher message.Publisher, topic string, log logger.Logger) *PublisherSubmitter {
	return &PublisherSubmitter{publisher: publisher, topic: topic, log: log}
}

// NewKafkaSubmitter publishes to Kafka through watermill.
func NewKafkaSubmitter(brokers []string, topic string, log logger.Logger) (*PublisherSubmitter, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger.Slog(log)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return NewPublisherSubmitter(publisher, topic, log), nil
}

func (p *PublisherSubmitter) Submit(ctx context.Context, s Submission) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	msg := message.NewMessage(s.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("form_id", s.FormID)
	msg.Metadata.Set("submitted_at", s.SubmittedAt.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.log.ErrorContext(ctx, "failed to publish submission", "submission_id", s.ID, "error", err)
		return fmt.Errorf("failed to publish submission: %w", err)
	}

	p.log.InfoContext(ctx, "published submission", "submission_id", s.ID, "topic", p.topic)
	return nil
}

func (p *PublisherSubmitter) Close() error {
	return p.publisher.Close()
}

// AsyncSubmitter hands submissions to next on a worker pool with retries, so
// callers never wait on a broker.
type AsyncSubmitter struct {
	next    Submitter
	pool    *workerpool.WorkerPool
	retries int
	delay   time.Duration
	log     logger.Logger
}

func NewAsyncSubmitter(next Submitter, pool *workerpool.WorkerPool, retries int, delay time.Duration, log logger.Logger) *AsyncSubmitter {
	return &AsyncSubmitter{next: next, pool: pool, retries: retries, delay: delay, log: log}
}

// Submit returns an error only when the queue rejected the submission.
func (a *AsyncSubmitter) Submit(ctx context.Context, s Submission) error {
	job := workerpool.WithRetry(a.retries, a.delay, a.log, func(ctx context.Context) error {
		return a.next.Submit(ctx, s)
	})

	if !a.pool.Submit(job) {
		return fmt.Errorf("submission %s rejected: queue full", s.ID)
	}
	return nil
}

func (a *AsyncSubmitter) Close() error {
	return a.next.Close()
}

// MemorySubmitter keeps submissions in memory; used by tests.
type MemorySubmitter struct {
	mu          sync.Mutex
	submissions []Submission
}

func NewMemorySubmitter() *MemorySubmitter {
	return &MemorySubmitter{}
}

func (m *MemorySubmitter) Submit(ctx context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.submissions = append(m.submissions, s)
	return nil
}

func (m *MemorySubmitter) Submissions() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Submission, len(m.submissions))
	copy(out, m.submissions)
	return out
}

func (m *MemorySubmitter) Close() error { return nil }
