package trigger

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"picam/util"
)

var (
	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "triggers_total",
		Help:      "Activation events received, by source.",
	}, []string{"source"})
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "triggers_dropped_total",
		Help:      "Activation events dropped because the handler was busy.",
	}, []string{"source"})
	failedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picam",
		Name:      "triggers_failed_total",
		Help:      "Activation events whose handler returned an error.",
	}, []string{"source"})
)

// Watcher binds one Handler to any number of Sources.
type Watcher struct {
	Sources []Source
	Handler Handler

	// Armed is notified once every source is running.
	Armed *util.Event
}

func NewWatcher(h Handler, sources ...Source) *Watcher {
	return &Watcher{
		Sources: sources,
		Handler: h,
		Armed:   util.NewEvent(),
	}
}

// Run blocks until ctx is done. Each event is handled on its own goroutine;
// serializing the work is up to the Handler. Handler errors are logged and
// watching continues. In-flight handlers are waited for before returning.
func (w *Watcher) Run(ctx context.Context) error {
	events := make(chan Event)

	for _, s := range w.Sources {
		if a, ok := s.(Armer); ok {
			a.Arm()
		}
	}

	var sources sync.WaitGroup
	for _, s := range w.Sources {
		sources.Add(1)
		go func(s Source) {
			defer sources.Done()
			slog := log.WithField("source", s.Name())
			slog.Infof("Watching %v", s.Name())
			if err := s.Run(ctx, events); err != nil && ctx.Err() == nil {
				slog.Errorf("Source stopped: %v", err)
			}
		}(s)
	}
	w.Armed.Notify()

	var handlers sync.WaitGroup
	defer func() {
		handlers.Wait()
		sources.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			handlers.Add(1)
			go func() {
				defer handlers.Done()
				w.dispatch(ctx, ev)
			}()
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, ev Event) {
	elog := log.WithField("source", ev.Source)
	triggersTotal.WithLabelValues(ev.Source).Inc()
	elog.Infof("Triggered at %v", ev.Time.Format("15:04:05"))

	err := w.Handler.Handle(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		droppedTotal.WithLabelValues(ev.Source).Inc()
		elog.Infof("Already recording, trigger dropped")
	default:
		failedTotal.WithLabelValues(ev.Source).Inc()
		elog.Errorf("Action failed: %v", err)
	}
}
