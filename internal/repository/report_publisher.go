package repository

import (
	"context"
	"fmt"

	"MoneyLoop/internal/domain/models"
	domrepo "MoneyLoop/internal/domain/repository"
	pkgkafka "MoneyLoop/pkg/kafka"
	applogger "MoneyLoop/pkg/logger"
)

// KafkaReportPublisher emits finished run reports to a Kafka topic
// keyed by run id, so replays of one run stay in partition order.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaReportPublisher) SetLogger(l *applogger.Logger) { p.l = l }

// PublishReport sends the full report plus its compact summary headers.
func (p *KafkaReportPublisher) PublishReport(ctx context.Context, report *models.RunReport) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(report.RunID), report); err != nil {
		if p.l != nil {
			p.l.Error("kafka report publish error",
				applogger.String("topic", p.topic),
				applogger.String("runId", report.RunID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish report %s: %w", report.RunID, err)
	}
	if p.l != nil {
		p.l.Debug("report published",
			applogger.String("topic", p.topic),
			applogger.String("runId", report.RunID),
		)
	}
	return nil
}

// Close flushes the underlying producer.
func (p *KafkaReportPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)
