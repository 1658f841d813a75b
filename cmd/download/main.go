package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"tubefetch/internal/config"
	"tubefetch/internal/extraction"
	"tubefetch/internal/models"
	"tubefetch/internal/worker"
	"tubefetch/internal/youtube"

	"github.com/kataras/golog"
)

func main() {
	var (
		format    = flag.String("format", "mp4", "Output format: mp4 or mp3")
		outputDir = flag.String("o", ".", "Output directory")
		infoOnly  = flag.Bool("info", false, "Only show video information")
		verbose   = flag.Bool("v", false, "Verbose output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <YouTube URL>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s https://www.youtube.com/watch?v=dQw4w9WgXcQ\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -format mp3 -o ~/Music https://youtu.be/dQw4w9WgXcQ\n", os.Args[0])
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	videoURL := flag.Arg(0)

	if !youtube.IsValidURL(videoURL) {
		fmt.Fprintf(os.Stderr, "Error: not a YouTube video URL: %s\n", videoURL)
		os.Exit(1)
	}

	outFormat, ok := models.ParseFormat(*format)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: Invalid format '%s'. Must be: mp4 or mp3\n", *format)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	golog.SetLevel("warn")
	if *verbose {
		golog.SetLevel("debug")
	}

	client := youtube.NewClient(youtube.WithFFmpegPath(cfg.FFmpegPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *infoOnly {
		info, err := client.GetVideo(ctx, videoURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get video: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Title:    %s\n", info.Title)
		fmt.Printf("Author:   %s\n", info.Author)
		fmt.Printf("Duration: %s\n", info.Duration)
		fmt.Printf("ID:       %s\n", info.ID)
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	manager := worker.NewManager(extraction.NewAdapter(client), 1)
	job, err := manager.Start(videoURL, outFormat, *outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Job %s: %s\n", job.ID, videoURL)

	final := watch(ctx, manager)

	switch final.Status {
	case models.JobStatusCompleted:
		if final.Filepath != nil {
			fmt.Println(*final.Filepath)
		}
	case models.JobStatusCancelled:
		fmt.Fprintln(os.Stderr, models.CancelledMessage)
		os.Exit(130)
	default:
		msg := "unknown error"
		if final.Error != nil {
			msg = *final.Error
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}

// watch polls the manager until the job is finished, cancelling it on interrupt
func watch(ctx context.Context, manager *worker.Manager) models.JobView {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		manager.Wait()
		close(done)
	}()

	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			// Shutdown also covers a job that has not started downloading yet
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := manager.Shutdown(shutdownCtx); err != nil {
				golog.Warnf("%v", err)
			}
			cancel()
			interrupted = nil
		case <-done:
			fmt.Fprintln(os.Stderr)
			view, _ := manager.Progress()
			return view
		case <-ticker.C:
			if view, ok := manager.Progress(); ok {
				fmt.Fprintf(os.Stderr, "\r%-11s %3d%%", view.Status, view.Percent)
			}
		}
	}
}
