package youtube

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"tubefetch/internal/models"
)

func TestCopyWithProgress(t *testing.T) {
	data := strings.Repeat("x", 100*1024)
	var dst bytes.Buffer
	var calls []int64

	err := copyWithProgress(context.Background(), &dst, strings.NewReader(data), int64(len(data)), func(current, total int64) bool {
		calls = append(calls, current)
		if total != int64(len(data)) {
			t.Errorf("Expected total %d, got %d", len(data), total)
		}
		return true
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if dst.Len() != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), dst.Len())
	}
	if len(calls) == 0 || calls[len(calls)-1] != int64(len(data)) {
		t.Errorf("Expected last progress to report all bytes, got %v", calls)
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Errorf("Expected increasing progress, got %v", calls)
			break
		}
	}
}

func TestCopyWithProgress_Abort(t *testing.T) {
	data := strings.Repeat("x", 100*1024)
	var dst bytes.Buffer
	calls := 0

	err := copyWithProgress(context.Background(), &dst, strings.NewReader(data), 0, func(current, total int64) bool {
		calls++
		return calls < 2
	})
	if !errors.Is(err, models.ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected copy to stop at the second callback, got %d calls", calls)
	}
}

func TestCopyWithProgress_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	err := copyWithProgress(ctx, &dst, strings.NewReader("data"), 4, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if dst.Len() != 0 {
		t.Errorf("Expected nothing written, got %d bytes", dst.Len())
	}
}

func TestDownloadToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")

	var last models.ProgressEvent
	err := downloadToFile(context.Background(), path, strings.NewReader("hello"), 5, func(ev models.ProgressEvent) bool {
		last = ev
		return true
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil || string(got) != "hello" {
		t.Errorf("Expected file content hello, got %q (%v)", got, err)
	}
	if last.Kind != models.ProgressDownloading || last.DownloadedBytes != 5 || last.TotalBytes != 5 || last.Filename != path {
		t.Errorf("Unexpected last event: %+v", last)
	}
}

func TestDownloadToFile_AbortRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")

	err := downloadToFile(context.Background(), path, strings.NewReader("hello"), 5, func(models.ProgressEvent) bool {
		return false
	})
	if !errors.Is(err, models.ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected partial file to be removed, stat err: %v", err)
	}
}

func TestDownloadToFile_ReadErrorRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")

	err := downloadToFile(context.Background(), path, errReader{}, 5, func(models.ProgressEvent) bool { return true })
	if err == nil || !strings.Contains(err.Error(), "failed to download") {
		t.Fatalf("Expected download error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected partial file to be removed, stat err: %v", err)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestConvertToMP3_MissingFFmpeg(t *testing.T) {
	c := NewClient(WithFFmpegPath(filepath.Join(t.TempDir(), "no-such-ffmpeg")))

	err := c.convertToMP3(context.Background(), "in.m4a", "out.mp3")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg not found") {
		t.Errorf("Expected ffmpeg not found error, got %v", err)
	}
}

// fakeFFmpeg writes an executable script standing in for ffmpeg
func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script ffmpeg stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

// copies the -i input to the last argument
const copyingFFmpeg = `for a; do out="$a"; done
cp "$2" "$out"
`

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSave_Video(t *testing.T) {
	dir := t.TempDir()
	c := NewClient()
	base := filepath.Join(dir, "Clip")

	var kinds []models.ProgressKind
	path, err := c.save(context.Background(), strings.NewReader("video"), 5, base, ".mp4", models.FormatVideo, func(ev models.ProgressEvent) bool {
		kinds = append(kinds, ev.Kind)
		return true
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != base+".mp4" {
		t.Errorf("Expected %s, got %s", base+".mp4", path)
	}
	if !exists(path) {
		t.Error("Expected output file to exist")
	}
	if len(kinds) == 0 || kinds[len(kinds)-1] != models.ProgressFinished {
		t.Errorf("Expected finished as last event, got %v", kinds)
	}
}

func TestSave_AudioConvertsAndRemovesIntermediate(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(WithFFmpegPath(fakeFFmpeg(t, copyingFFmpeg)))
	base := filepath.Join(dir, "Song")

	path, err := c.save(context.Background(), strings.NewReader("audio"), 5, base, ".m4a", models.FormatAudio, func(models.ProgressEvent) bool {
		return true
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path != base+".mp3" {
		t.Errorf("Expected %s, got %s", base+".mp3", path)
	}
	if got, err := os.ReadFile(path); err != nil || string(got) != "audio" {
		t.Errorf("Expected converted file content, got %q (%v)", got, err)
	}
	if exists(base + ".m4a") {
		t.Error("Expected intermediate m4a to be removed")
	}
}

func TestSave_ConversionFailureRemovesAllFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(WithFFmpegPath(fakeFFmpeg(t, `for a; do out="$a"; done
echo partial > "$out"
exit 1
`)))
	base := filepath.Join(dir, "Song")

	_, err := c.save(context.Background(), strings.NewReader("audio"), 5, base, ".webm", models.FormatAudio, func(models.ProgressEvent) bool {
		return true
	})
	if err == nil || !strings.Contains(err.Error(), "ffmpeg conversion failed") {
		t.Fatalf("Expected conversion error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files left behind, got %d", len(entries))
	}
}

func TestSave_AbortAfterFinishedRemovesFile(t *testing.T) {
	dir := t.TempDir()
	c := NewClient(WithFFmpegPath(fakeFFmpeg(t, "exit 99\n")))
	base := filepath.Join(dir, "Song")

	_, err := c.save(context.Background(), strings.NewReader("audio"), 5, base, ".m4a", models.FormatAudio, func(ev models.ProgressEvent) bool {
		return ev.Kind != models.ProgressFinished
	})
	if !errors.Is(err, models.ErrAborted) {
		t.Fatalf("Expected ErrAborted, got %v", err)
	}
	if exists(base+".m4a") || exists(base+".mp3") {
		t.Error("Expected downloaded file to be removed after abort")
	}
}
