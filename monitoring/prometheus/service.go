// Package prometheus serves the metrics registered with the default prometheus registerer
// over http, next to a health endpoint reporting the state of the process.
package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"runtime/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "prometheus")

// StatusFunc reports whether the process serving metrics is healthy.
type StatusFunc func() error

// Service provides Prometheus metrics via the /metrics route. This route will
// show all the metrics registered with the Prometheus DefaultRegisterer.
type Service struct {
	server     *http.Server
	status     StatusFunc
	failStatus error
}

// NewService sets up a new instance for a given address host:port.
// An empty host will match with any IP so an address like ":2121" is perfectly acceptable.
// status may be nil, in which case /healthz only reports failures of the server itself.
func NewService(addr string, status StatusFunc) *Service {
	s := &Service{status: status}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.healthzHandler)
	mux.HandleFunc("/goroutinez", s.goroutinezHandler)

	s.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: time.Second}
	return s
}

// Handler returns the http handler serving the routes of the service.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	err := s.Status()
	if err == nil && s.status != nil {
		err = s.status()
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := fmt.Fprintf(w, "ERROR %v\n", err); werr != nil {
			log.WithError(werr).Error("Could not write healthz body")
		}
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, werr := w.Write([]byte("OK\n")); werr != nil {
		log.WithError(werr).Error("Could not write healthz body")
	}
}

func (_ *Service) goroutinezHandler(w http.ResponseWriter, _ *http.Request) {
	stack := debug.Stack()
	// #nosec G104
	w.Write(stack)
	// #nosec G104
	pprof.Lookup("goroutine").WriteTo(w, 2)
}

// Start the prometheus service.
func (s *Service) Start() {
	log.WithField("endpoint", s.server.Addr).Info("Starting service")
	go func() {
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Could not listen to host:port %s", s.server.Addr)
			s.failStatus = err
		}
	}()
}

// Stop the service gracefully.
func (s *Service) Stop() error {
	log.Info("Stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Status checks for any service failure conditions.
func (s *Service) Status() error {
	return s.failStatus
}
