// Package jobs defines the asynchronous tasks of the platform: OTP
// delivery and audit log retention.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-fin/meridian/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical carries time-sensitive tasks such as OTP delivery.
	QueueCritical = "critical"

	// TaskTypeSendOTP delivers a one-time passcode to a phone number.
	TaskTypeSendOTP = "otp:send"
	// TaskTypeAuditPrune trims audit_logs past the retention horizon.
	TaskTypeAuditPrune = "audit:prune"
)

// SendOTPPayload carries an OTP delivery request.
type SendOTPPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// NewSendOTPTask constructs an Asynq task for OTP delivery.
func NewSendOTPTask(payload SendOTPPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendOTP, data), nil
}

// NewSendOTPHandler returns the handler processing TaskTypeSendOTP tasks.
// Delivery goes through the SMS provider; in development it only logs.
func NewSendOTPHandler(logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("otp_send")
		var payload SendOTPPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		// TODO: wire the SMS provider once the account is provisioned.
		logger.Info("otp dispatched", slog.String("phone", maskPhone(payload.Phone)))
		return tracker.End(nil)
	}
}

// AuditPrunePayload carries the retention horizon for audit pruning.
type AuditPrunePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPruneTask constructs the scheduled audit retention task.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditPrune, data), nil
}

// NewAuditPruneHandler returns the handler trimming audit_logs.
func NewAuditPruneHandler(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("audit_prune")
		var payload AuditPrunePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		retention := payload.Retention
		if retention <= 0 {
			retention = 180 * 24 * time.Hour
		}
		horizon := time.Now().Add(-retention)
		tag, err := pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, horizon)
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("audit logs pruned",
			slog.Int64("removed", tag.RowsAffected()),
			slog.Time("horizon", horizon))
		return tracker.End(nil)
	}
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:len(phone)-4] + "****"
}
