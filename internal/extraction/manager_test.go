package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"tubefetch/internal/models"
	"tubefetch/internal/worker"
)

// streamingEngine reports downloading progress until release is closed,
// the callback refuses an event, or ctx is cancelled
func streamingEngine(release <-chan struct{}) Engine {
	return engineFunc(func(ctx context.Context, req models.FetchRequest, onProgress models.ProgressFunc) (*models.FetchResult, error) {
		name := req.OutputDir + "/Song.m4a"
		var done int64
		for {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
				if !onProgress(finished()) {
					return nil, models.ErrAborted
				}
				return &models.FetchResult{Title: "Song", Filepath: name}, nil
			case <-time.After(5 * time.Millisecond):
			}
			if done < 90 {
				done += 10
			}
			if !onProgress(downloading(done, 100, name)) {
				return nil, models.ErrAborted
			}
		}
	})
}

func waitForStatus(t *testing.T, m *worker.Manager, status models.JobStatus) models.JobView {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if view, ok := m.Progress(); ok && view.Status == status {
			return view
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for status %s", status)
	return models.JobView{}
}

func TestManagerWithAdapter_StartThenCancel(t *testing.T) {
	release := make(chan struct{})
	m := worker.NewManager(NewAdapter(streamingEngine(release)), worker.DefaultHistorySize)

	started, err := m.Start("https://youtu.be/abc", models.FormatAudio, "/tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	view := waitForStatus(t, m, models.JobStatusDownloading)
	if view.ID != started.ID {
		t.Fatalf("Expected job %s, got %s", started.ID, view.ID)
	}

	if _, err := m.Start("https://youtu.be/other", models.FormatVideo, "/tmp/x"); !errors.Is(err, worker.ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning while downloading, got %v", err)
	}

	if !m.Cancel() {
		t.Fatal("Expected Cancel to succeed while downloading")
	}
	m.Wait()

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("Expected one history entry, got %d", len(history))
	}
	got := history[0]
	if got.ID != started.ID || got.Status != models.JobStatusCancelled {
		t.Errorf("Expected cancelled %s, got %s %s", started.ID, got.ID, got.Status)
	}
	if got.Error == nil || *got.Error != models.CancelledMessage {
		t.Errorf("Expected %q, got %v", models.CancelledMessage, got.Error)
	}
	if got.Title != nil {
		t.Errorf("Expected no title for cancelled job, got %q", *got.Title)
	}

	if m.Cancel() {
		t.Error("Expected Cancel to report nothing to cancel after the job ended")
	}
	if _, err := m.Start("https://youtu.be/next", models.FormatVideo, "/tmp/x"); err != nil {
		t.Errorf("Expected a new job to be admitted, got %v", err)
	}
	close(release)
	m.Wait()
}

func TestManagerWithAdapter_AudioCompleted(t *testing.T) {
	release := make(chan struct{})
	m := worker.NewManager(NewAdapter(streamingEngine(release)), worker.DefaultHistorySize)

	started, err := m.Start("https://youtu.be/abc", models.FormatAudio, "/tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, m, models.JobStatusDownloading)
	close(release)
	m.Wait()

	view, ok := m.Progress()
	if !ok || view.ID != started.ID {
		t.Fatalf("Expected finished job to be reported, got %+v", view)
	}
	if view.Status != models.JobStatusCompleted || view.Percent != 100 {
		t.Errorf("Expected completed at 100, got %s at %d", view.Status, view.Percent)
	}
	if view.Filename == nil || *view.Filename != "Song.mp3" {
		t.Errorf("Expected Song.mp3, got %v", view.Filename)
	}
	if view.Error != nil {
		t.Errorf("Expected no error, got %q", *view.Error)
	}
}
