package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tubefetch/internal/models"

	"github.com/kataras/golog"
)

// ErrAlreadyRunning is returned by Start while another job is downloading or processing
var ErrAlreadyRunning = &AdmissionError{Reason: "another download already running"}

// AdmissionError reports that a job was not admitted
type AdmissionError struct {
	Reason string
}

func (e *AdmissionError) Error() string {
	return e.Reason
}

// Is matches any AdmissionError so callers can use errors.Is(err, ErrAlreadyRunning)
func (e *AdmissionError) Is(target error) bool {
	var ae *AdmissionError
	return errors.As(target, &ae)
}

// unexpectedFailure is the message recorded when a job ends without a terminal state
const unexpectedFailure = "download failed unexpectedly"

// Runner executes one job to a terminal state
type Runner interface {
	Run(job *models.Job)
}

// Manager admits at most one running job at a time and keeps a bounded
// history of finished jobs.
type Manager struct {
	runner Runner

	mu      sync.Mutex
	active  *models.Job
	history *History[*models.Job]

	wg sync.WaitGroup
}

// NewManager creates a new Manager
func NewManager(runner Runner, historySize int) *Manager {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Manager{
		runner:  runner,
		history: NewHistory[*models.Job](historySize),
	}
}

// Start admits a new job and runs it in the background.
// The returned view is the queued job; completion is observed via Progress or History.
func (m *Manager) Start(url string, format models.Format, outputDir string) (models.JobView, error) {
	m.mu.Lock()
	if m.active != nil && m.active.Status().IsRunning() {
		m.mu.Unlock()
		return models.JobView{}, ErrAlreadyRunning
	}

	// A still-queued job is superseded; make it unwind instead of racing the new one
	if prev := m.active; prev != nil {
		prev.CancelSignal().Set()
		golog.Debugf("Job %s superseded before it started", prev.ID())
	}

	job := models.NewJob(url, format, outputDir)
	m.active = job
	view := job.Snapshot()
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(job)

	golog.Infof("Job %s started (format: %s, url: %s)", job.ID(), format, url)
	return view, nil
}

func (m *Manager) run(job *models.Job) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			golog.Errorf("Job %s panicked: %v", job.ID(), r)
			job.Fail(unexpectedFailure)
		}
		if !job.Status().IsTerminal() {
			job.Fail(unexpectedFailure)
		}
		m.finish(job)
	}()

	m.runner.Run(job)
}

// finish moves a terminal job into history. Called exactly once per job.
func (m *Manager) finish(job *models.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history.Push(job)
	if m.active == job {
		m.active = nil
	}
	golog.Debugf("Job %s moved to history (status: %s)", job.ID(), job.Status())
}

// Progress returns the active job, or the most recently finished one when idle.
// It returns false if no job has ever been started.
func (m *Manager) Progress() (models.JobView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return m.active.Snapshot(), true
	}
	if last, ok := m.history.Newest(); ok {
		return last.Snapshot(), true
	}
	return models.JobView{}, false
}

// Cancel requests cancellation of the running job.
// It returns false when there is nothing downloading or processing.
func (m *Manager) Cancel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || !m.active.RequestCancel() {
		return false
	}
	golog.Infof("Cancellation requested for job %s", m.active.ID())
	return true
}

// History returns finished jobs, newest first
func (m *Manager) History() []models.JobView {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := m.history.List()
	views := make([]models.JobView, len(jobs))
	for i, job := range jobs {
		views[i] = job.Snapshot()
	}
	return views
}

// Wait blocks until every started job has reached history
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown cancels the in-flight job and waits for it to unwind or for ctx to expire
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.active != nil {
		m.active.CancelSignal().Set()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for job to stop: %w", ctx.Err())
	}
}
