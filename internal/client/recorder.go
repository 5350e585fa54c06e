package client

import (
	"context"
	"time"
)

// CallRecord describes one server-to-server call. The hash and salt are
// never part of it.
type CallRecord struct {
	Command    string
	Var1       string
	OK         bool
	HTTPStatus int
	Message    string
	Duration   time.Duration
	At         time.Time
}

type CallRecorder interface {
	RecordCall(ctx context.Context, rec CallRecord)
}

type RecorderFunc func(ctx context.Context, rec CallRecord)

func (f RecorderFunc) RecordCall(ctx context.Context, rec CallRecord) { f(ctx, rec) }

// Recorders fans a record out to every non-nil recorder.
func Recorders(rs ...CallRecorder) CallRecorder {
	return RecorderFunc(func(ctx context.Context, rec CallRecord) {
		for _, r := range rs {
			if r != nil {
				r.RecordCall(ctx, rec)
			}
		}
	})
}
