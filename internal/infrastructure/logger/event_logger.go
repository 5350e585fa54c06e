package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GatewayCallLog is the audit row of one server-to-server call. The hash
// and salt are never stored.
type GatewayCallLog struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	Command    string    `gorm:"size:64;index" json:"command"`
	Var1       string    `gorm:"type:text" json:"var1"`
	Success    bool      `json:"success"`
	HTTPStatus int       `json:"http_status"`
	Message    string    `gorm:"type:text" json:"message"`
	DurationMs int64     `json:"duration_ms"`
	CalledAt   time.Time `gorm:"index" json:"called_at"`
}

func (GatewayCallLog) TableName() string { return "gateway_call_logs" }

type PGGatewayCallLogger struct {
	db *gorm.DB
}

func NewPGGatewayCallLogger(db *gorm.DB) *PGGatewayCallLogger {
	return &PGGatewayCallLogger{db: db}
}

func (l *PGGatewayCallLogger) LogCall(ctx context.Context, entry GatewayCallLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return l.db.WithContext(ctx).Create(&entry).Error
}

// LogCallAsync writes the row without holding up the caller. The write
// gets its own deadline since the request context may already be done.
func (l *PGGatewayCallLogger) LogCallAsync(entry GatewayCallLog) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.LogCall(ctx, entry); err != nil {
			slog.Error("failed to write gateway call log", "command", entry.Command, "error", err)
		}
	}()
}

func (l *PGGatewayCallLogger) Recent(ctx context.Context, command string, limit int) ([]GatewayCallLog, error) {
	q := l.db.WithContext(ctx).Order("called_at DESC")
	if command != "" {
		q = q.Where("command = ?", command)
	}
	if limit <= 0 {
		limit = 50
	}
	var out []GatewayCallLog
	err := q.Limit(limit).Find(&out).Error
	return out, err
}

// RecordCall stores a client call record as an audit row.
func (l *PGGatewayCallLogger) RecordCall(_ context.Context, rec client.CallRecord) {
	l.LogCallAsync(GatewayCallLog{
		Command:    rec.Command,
		Var1:       auditVar1(rec.Command, rec.Var1),
		Success:    rec.OK,
		HTTPStatus: rec.HTTPStatus,
		Message:    rec.Message,
		DurationMs: rec.Duration.Milliseconds(),
		CalledAt:   rec.At,
	})
}

const (
	redacted    = "[REDACTED]"
	maxAuditVar = 256
)

// Invoice and checkout payloads carry the payer's contact details; only
// these keys are kept readable.
var auditKeys = map[string]bool{"txnid": true, "amount": true, "productinfo": true}

// auditVar1 strips payer data from var1 before it is stored.
func auditVar1(command, var1 string) string {
	switch command {
	case client.CmdCreateInvoice, client.CmdCheckoutDetails:
		var fields map[string]any
		if json.Unmarshal([]byte(var1), &fields) != nil {
			return redacted
		}
		for k := range fields {
			if !auditKeys[strings.ToLower(k)] {
				fields[k] = redacted
			}
		}
		b, err := json.Marshal(fields)
		if err != nil {
			return redacted
		}
		var1 = string(b)
	case client.CmdValidateVPA:
		if at := strings.LastIndex(var1, "@"); at >= 0 {
			return "***" + var1[at:]
		}
		return redacted
	}
	return truncate(var1, maxAuditVar)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
