// Package progress defines the event types fanned out by the scanner and
// deduplicator, the cooperative stop token collaborators poll, and a default
// logrus-backed sink.
package progress

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Event is the tagged union fanned out to a Sink. Exactly one field group is
// meaningful per event; callers switch on the concrete type via a type
// switch, not a discriminator field, since Go gives us sum types for free
// this way.
type Event interface {
	isEvent()
}

// ScanProgress reports a running count of files seen by the scanner.
type ScanProgress struct {
	FilesSeen int64
}

// StageProgress reports completion within one deduplication stage.
type StageProgress struct {
	Stage string
	Done  int64
	Total int64
}

// Warning reports a single non-fatal issue tied to a path.
type Warning struct {
	Path    string
	Message string
}

// Done reports terminal completion of an operation, with a short summary.
type Done struct {
	Summary string
}

func (ScanProgress) isEvent()  {}
func (StageProgress) isEvent() {}
func (Warning) isEvent()       {}
func (Done) isEvent()          {}

// Sink receives progress events. It must be safe to call concurrently from
// any worker goroutine, and must never be called while the caller holds an
// internal lock. A Sink must not block for long — it is on the hot path of
// every hashing stage.
type Sink func(Event)

// Noop discards every event.
func Noop(Event) {}

// Logrus returns a Sink that logs events to the given logger at appropriate
// levels: ScanProgress/StageProgress at Debug, Warning at Warn, Done at Info.
func Logrus(log *logrus.Logger) Sink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(e Event) {
		switch ev := e.(type) {
		case ScanProgress:
			log.WithField("files_seen", ev.FilesSeen).Debug("scan progress")
		case StageProgress:
			log.WithFields(logrus.Fields{
				"stage": ev.Stage,
				"done":  ev.Done,
				"total": ev.Total,
			}).Debug("stage progress")
		case Warning:
			log.WithField("path", ev.Path).Warn(ev.Message)
		case Done:
			log.WithField("summary", ev.Summary).Info("done")
		}
	}
}

// Throttle wraps a Sink so that ScanProgress and StageProgress events are
// forwarded only every n-th call (a counter-mod check, not a timer, per the
// scanner's "fewer than ~50 events/sec" budget). Warning and Done events
// always pass through.
func Throttle(next Sink, n int64) Sink {
	if n < 1 {
		n = 1
	}
	var count atomic.Int64
	return func(e Event) {
		switch e.(type) {
		case ScanProgress, StageProgress:
			if count.Add(1)%n != 0 {
				return
			}
		}
		next(e)
	}
}

// StopToken is the cooperative cancellation signal polled by the scanner
// (at each directory it enters), the deduplicator (before each stage and
// before each file's hashing work item), and the keep-one executor (between
// files). A context.Context's cancellation implements it directly.
type StopToken interface {
	Stopped() bool
}

// FromContext adapts a context.Context into a StopToken.
func FromContext(ctx context.Context) StopToken {
	return ctxToken{ctx}
}

type ctxToken struct{ ctx context.Context }

func (c ctxToken) Stopped() bool {
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}

// StageInterval is a small helper for the "every N completions" throttle rule used
// by stage progress (§4.5): N = max(1, total/200).
func StageInterval(total int64) int64 {
	n := total / 200
	if n < 1 {
		n = 1
	}
	return n
}
