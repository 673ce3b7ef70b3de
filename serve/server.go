// Package serve hosts the optional HTTP surface: manual trigger, status
// stream and metrics.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// NewMux wires the handlers. Any of them may be nil.
func NewMux(trigger http.Handler, status *StatusUpdater, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	if trigger != nil {
		mux.Handle("/trigger", trigger)
	}
	if status != nil {
		mux.Handle("/status", status)
	}
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves h on port until ctx is done. Requests are logged in
// combined log format.
func ListenAndServe(ctx context.Context, port int, h http.Handler) error {
	w := log.StandardLogger().WriterLevel(log.DebugLevel)
	defer w.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handlers.CombinedLoggingHandler(w, h),
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()

	log.Infof("Hosting HTTP on port %d", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
