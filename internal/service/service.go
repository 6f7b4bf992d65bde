// Package service exposes the pipeline over HTTP: training endpoints that
// return a token, token-addressed progress polling and stop, and chat.
// Progress state lives in an in-memory registry, so polling must hit the
// same process that started the run.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	knowledge "github.com/xiv-ai/knowledge"
)

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusStopped = "stopped"
	StatusFailed  = "failed"
)

// run tracks one training run for the progress and stop endpoints.
type run struct {
	mtx     sync.Mutex
	percent int
	status  string
	trained int
	detail  string
	stop    bool
}

func (r *run) setProgress(percent int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.percent = percent
}

func (r *run) finish(status string, trained int, detail string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.status = status
	r.trained = trained
	r.detail = detail
	r.percent = 100
}

func (r *run) requestStop() {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.stop = true
}

func (r *run) stopped() bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.stop
}

func (r *run) snapshot() (int, string, int, string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.percent, r.status, r.trained, r.detail
}

type Service struct {
	options Options

	mtx  sync.RWMutex
	runs map[string]*run
}

func New(opts ...Option) *Service {
	options := NewOptions(opts...)

	if options.Pipeline == nil {
		detail := "service requires pipeline options"
		slog.ErrorContext(options.Context, detail)
		panic(detail)
	}

	return &Service{
		options: options,
		runs:    map[string]*run{},
	}
}

// Handler builds the HTTP routing table.
func (s *Service) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/train/url", s.handleTrainURL).Methods(http.MethodPost)
	router.HandleFunc("/train/text", s.handleTrainText).Methods(http.MethodPost)
	router.HandleFunc("/train/qa", s.handleTrainQA).Methods(http.MethodPost)
	router.HandleFunc("/train/{token}/progress", s.handleProgress).Methods(http.MethodGet)
	router.HandleFunc("/train/{token}/stop", s.handleStop).Methods(http.MethodPost)
	router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	return router
}

// startRun registers a run and launches the training work on its own
// goroutine with a pipeline wired to the run's progress and stop state.
func (s *Service) startRun(fullSite bool, url string) string {
	token := uuid.New().String()

	r := &run{status: StatusRunning, percent: 2}

	s.mtx.Lock()
	s.runs[token] = r
	s.mtx.Unlock()

	pipeline := knowledge.New(append(s.options.Pipeline,
		knowledge.WithProgress(r.setProgress),
		knowledge.WithShouldStop(r.stopped),
	)...)

	go func() {
		ctx := context.Background()

		if fullSite {
			result, err := pipeline.TrainSite(ctx, url)
			switch {
			case err != nil:
				r.finish(StatusFailed, 0, err.Error())
			case result.Stopped:
				r.finish(StatusStopped, result.Trained, "")
			default:
				r.finish(StatusDone, result.Trained, "")
			}
			return
		}

		if _, err := pipeline.TrainURL(ctx, url); err != nil {
			r.finish(StatusFailed, 0, err.Error())
			return
		}
		r.finish(StatusDone, 1, "")
	}()

	return token
}

func (s *Service) lookup(token string) *run {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.runs[token]
}
