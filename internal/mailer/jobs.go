package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"messmate/internal/metrics"
	"messmate/internal/queue"
)

// HandleJob delivers one queued account email.
func (m *Mailer) HandleJob(ctx context.Context, msg queue.Message) error {
	switch msg.Type {
	case queue.TypeInviteEmail:
		var job queue.InviteEmail
		if err := msg.Decode(&job); err != nil {
			return err
		}
		return m.SendInvite(ctx, job.To, job.FullName, job.Password)
	case queue.TypeOTPEmail:
		var job queue.OTPEmail
		if err := msg.Decode(&job); err != nil {
			return err
		}
		return m.SendOTP(ctx, job.To, job.OTP)
	}
	return fmt.Errorf("unknown job type %q", msg.Type)
}

// Work consumes q until ctx is done. Failed jobs are logged and dropped.
func (m *Mailer) Work(ctx context.Context, q queue.Queue, met *metrics.Metrics, log *zap.Logger) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info("mail worker started")
	for msg := range messages {
		outcome := metrics.OutcomeOK
		if err := m.HandleJob(ctx, msg); err != nil {
			outcome = metrics.OutcomeFailed
			log.Error("mail job failed", zap.String("id", msg.ID), zap.String("type", msg.Type), zap.Error(err))
		} else {
			log.Debug("mail job done", zap.String("id", msg.ID), zap.String("type", msg.Type))
		}
		met.Jobs.WithLabelValues(msg.Type, outcome).Inc()
	}
	log.Info("mail worker stopped")
	return nil
}
