// Package outbox persists notification emails and delivers them from a
// background worker, so that a failed send never affects the request that
// produced it and can be retried.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"pawhaven/shelter/mailer"
	"pawhaven/shelter/schema"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxAttempts = 3

// Enqueue records an email to be sent. Callers treat a returned error as
// log-and-continue: the primary write that triggered the email has already
// succeeded and is not affected.
func Enqueue(db *gorm.DB, templateKey, recipient string, data mailer.Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error encoding email data: %w", err)
	}

	email := schema.EmailOutbox{
		Id:        uuid.New(),
		Template:  templateKey,
		Recipient: recipient,
		Data:      string(payload),
		Status:    schema.EmailPending,
	}

	result := db.Create(&email)
	if result.Error != nil {
		slog.Error("sql error enqueueing email", "template", templateKey, "error", result.Error)
		return schema.ErrDbAccessFailed
	}

	slog.Info("email enqueued", "template", templateKey, "outbox_id", email.Id)
	return nil
}

type Worker struct {
	db     *gorm.DB
	mailer mailer.Mailer
	stop   chan bool
}

func NewWorker(db *gorm.DB, m mailer.Mailer) *Worker {
	return &Worker{db: db, mailer: m, stop: make(chan bool, 1)}
}

// Run drains the outbox on a fixed interval until Stop is called.
func (w *Worker) Run(interval time.Duration) {
	slog.Info("email outbox worker: starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Drain()
		case <-w.stop:
			slog.Info("email outbox worker: stopped")
			return
		}
	}
}

func (w *Worker) Stop() {
	close(w.stop)
}

// Drain attempts delivery of every pending email plus failed ones that
// still have attempts left.
func (w *Worker) Drain() {
	var emails []schema.EmailOutbox

	result := w.db.
		Where("status = ?", schema.EmailPending).
		Or("status = ? AND attempts < ?", schema.EmailFailed, maxAttempts).
		Order("created_at").
		Find(&emails)
	if result.Error != nil {
		slog.Error("email outbox worker: sql error listing deliverable emails", "error", result.Error)
		return
	}

	for _, email := range emails {
		w.deliver(&email)
	}
}

func (w *Worker) deliver(email *schema.EmailOutbox) {
	var data mailer.Data
	if err := json.Unmarshal([]byte(email.Data), &data); err != nil {
		slog.Error("email outbox worker: invalid data payload", "outbox_id", email.Id, "error", err)
		w.markFailed(email, maxAttempts, fmt.Sprintf("invalid data payload: %v", err))
		return
	}

	msg, err := mailer.Render(email.Template, data)
	if err != nil {
		slog.Error("email outbox worker: render failed", "outbox_id", email.Id, "error", err)
		w.markFailed(email, maxAttempts, err.Error())
		return
	}

	if err := w.mailer.Send(context.Background(), email.Recipient, msg); err != nil {
		slog.Error("email outbox worker: send failed", "outbox_id", email.Id, "attempt", email.Attempts+1, "error", err)
		w.markFailed(email, email.Attempts+1, err.Error())
		return
	}

	now := time.Now().UTC()
	result := w.db.Model(email).Updates(map[string]interface{}{
		"status":   schema.EmailSent,
		"attempts": email.Attempts + 1,
		"sent_at":  &now,
	})
	if result.Error != nil {
		slog.Error("email outbox worker: sql error marking email sent", "outbox_id", email.Id, "error", result.Error)
		return
	}

	slog.Info("email sent", "template", email.Template, "outbox_id", email.Id)
}

func (w *Worker) markFailed(email *schema.EmailOutbox, attempts int, lastError string) {
	result := w.db.Model(email).Updates(map[string]interface{}{
		"status":     schema.EmailFailed,
		"attempts":   attempts,
		"last_error": lastError,
	})
	if result.Error != nil {
		slog.Error("email outbox worker: sql error marking email failed", "outbox_id", email.Id, "error", result.Error)
	}
}
