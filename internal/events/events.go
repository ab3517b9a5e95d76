// Package events delivers board activity to an external event sink.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mosaicboard/internal/models"
)

// Sink receives events after the mutation that produced them has committed.
type Sink interface {
	Emit(ctx context.Context, event models.Event) error
	Close() error
}

// Recorder counts emitted and failed events.
type Recorder interface {
	RecordEvent(name string, err error)
}

// Dispatcher hands events to a Sink. A delivery failure is logged and
// counted but never returned: events are delivered at most once.
type Dispatcher struct {
	sink     Sink
	recorder Recorder
	now      func() time.Time
}

func NewDispatcher(sink Sink, recorder Recorder) *Dispatcher {
	return &Dispatcher{sink: sink, recorder: recorder, now: time.Now}
}

func (d *Dispatcher) Emit(ctx context.Context, event models.Event) {
	if event.TimeCreated == 0 {
		event.TimeCreated = d.now().Unix()
	}

	err := d.sink.Emit(ctx, event)
	if d.recorder != nil {
		d.recorder.RecordEvent(event.Name, err)
	}
	if err != nil {
		zap.L().Error("failed to emit event",
			zap.String("event", event.Name),
			zap.Int64("objectid", event.ObjectID),
			zap.Int64("contextid", event.ContextID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) Close() error {
	return d.sink.Close()
}

// LogSink writes events to the structured log. It is used when no broker
// is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, event models.Event) error {
	s.logger.Info("event",
		zap.String("event", event.Name),
		zap.Int64("objectid", event.ObjectID),
		zap.Int64("contextid", event.ContextID),
		zap.Int64("userid", event.UserID),
		zap.Any("other", event.Other),
	)
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
