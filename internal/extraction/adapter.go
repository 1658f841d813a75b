package extraction

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"tubefetch/internal/models"

	"github.com/kataras/golog"
)

// Engine fetches a media URL to disk and reports progress through onProgress.
// When onProgress returns false the engine must stop and return models.ErrAborted.
type Engine interface {
	Fetch(ctx context.Context, req models.FetchRequest, onProgress models.ProgressFunc) (*models.FetchResult, error)
}

// Adapter drives an Engine for a single job and projects its progress
// onto the job record.
type Adapter struct {
	engine Engine
}

// NewAdapter creates a new Adapter
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Run executes the download for job and leaves it in a terminal state.
// It is called from the job's own goroutine and blocks until the engine returns.
func (a *Adapter) Run(job *models.Job) {
	signal := job.CancelSignal()

	// Interrupt blocking engine work (stream reads, ffmpeg) once cancellation is requested
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-signal.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	req := models.FetchRequest{
		URL:       job.URL(),
		Format:    job.Format(),
		OutputDir: job.OutputDir(),
	}

	result, err := a.engine.Fetch(ctx, req, func(ev models.ProgressEvent) bool {
		if signal.IsSet() {
			return false
		}
		apply(job, ev)
		return true
	})

	if signal.IsSet() || errors.Is(err, models.ErrAborted) {
		golog.Infof("Job %s cancelled", job.ID())
		job.Cancel()
		return
	}
	if err != nil {
		golog.Warnf("Job %s failed: %v", job.ID(), err)
		job.Fail(err.Error())
		return
	}

	var title, path string
	if result != nil {
		title = result.Title
		path = FinalPath(result.Filepath, job.Format())
	}
	if !job.Complete(title, path) {
		golog.Infof("Job %s cancelled before completion", job.ID())
		return
	}
	golog.Infof("Job %s completed: %s", job.ID(), path)
}

// apply projects one engine event onto the job
func apply(job *models.Job, ev models.ProgressEvent) {
	switch ev.Kind {
	case models.ProgressDownloading:
		job.MarkDownloading(models.PercentOf(ev.DownloadedBytes, ev.TotalBytes), ev.Filename)
	case models.ProgressFinished:
		job.MarkProcessing()
	}
}

// FinalPath normalizes the output path reported by the engine.
// Audio jobs always end in the audio container extension, whatever
// intermediate name the engine reported.
func FinalPath(path string, format models.Format) string {
	if path == "" || format != models.FormatAudio {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + format.Extension()
}
