package game

import (
	"context"
	"log/slog"
	"time"

	"example.com/wordgame/internal/metrics"
)

// Recorder archives finished matches off the dispatch loop. Enqueue never
// blocks; Run writes every record to each sink in turn.
type Recorder struct {
	queue   chan MatchRecord
	sinks   map[string]MatchSink
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(size int, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Recorder {
	if size <= 0 {
		size = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Recorder{
		queue:   make(chan MatchRecord, size),
		sinks:   make(map[string]MatchSink),
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

// AddSink must be called before Run.
func (r *Recorder) AddSink(name string, sink MatchSink) {
	r.sinks[name] = sink
}

func (r *Recorder) Sinks() int { return len(r.sinks) }

// Enqueue reports false when the queue is full and the record was dropped.
func (r *Recorder) Enqueue(rec MatchRecord) bool {
	select {
	case r.queue <- rec:
		return true
	default:
		r.metrics.RecordsDropped.Inc()
		r.log.Warn("match record dropped, queue full", "match", rec.MatchID)
		return false
	}
}

// Run consumes the queue until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case rec := <-r.queue:
			r.save(rec)
		case <-ctx.Done():
			for {
				select {
				case rec := <-r.queue:
					r.save(rec)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) save(rec MatchRecord) {
	for name, sink := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := sink.SaveMatch(ctx, rec)
		cancel()
		if err != nil {
			r.metrics.RecordErrors.WithLabelValues(name).Inc()
			r.log.Error("archive match", "sink", name, "match", rec.MatchID, "err", err)
		}
	}
}
