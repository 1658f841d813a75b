package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"tubefetch/internal/models"
)

// Fetch は動画をダウンロードし、音声フォーマットの場合はmp3に変換する
// onProgressがfalseを返した場合は処理を中断してmodels.ErrAbortedを返す
func (c *Client) Fetch(ctx context.Context, req models.FetchRequest, onProgress models.ProgressFunc) (*models.FetchResult, error) {
	if onProgress == nil {
		onProgress = func(models.ProgressEvent) bool { return true }
	}

	// 動画情報を取得
	video, err := c.client.GetVideoContext(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	// 最適なフォーマットを選択
	selected, err := selectFormat(video.Formats, req.Format)
	if err != nil {
		return nil, err
	}

	// 出力先を決定
	base, err := outputBase(req.OutputDir, video.Title)
	if err != nil {
		return nil, err
	}
	downloadPath := base + Extension(selected.MimeType)

	if !onProgress(models.ProgressEvent{
		Kind:       models.ProgressDownloading,
		TotalBytes: selected.ContentLength,
		Filename:   downloadPath,
	}) {
		return nil, models.ErrAborted
	}

	// ストリームを取得
	stream, size, err := c.client.GetStreamContext(ctx, video, selected)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()
	if size <= 0 {
		size = selected.ContentLength
	}

	path, err := c.save(ctx, stream, size, base, Extension(selected.MimeType), req.Format, onProgress)
	if err != nil {
		return nil, err
	}

	return &models.FetchResult{
		Title:    video.Title,
		Filepath: path,
	}, nil
}

// save はストリームをbase+extに書き出し、音声フォーマットならmp3に変換する
// 失敗・中断時は作成したファイルをすべて削除する
func (c *Client) save(ctx context.Context, stream io.Reader, size int64, base, ext string, format models.Format, onProgress models.ProgressFunc) (string, error) {
	downloadPath := base + ext
	if err := downloadToFile(ctx, downloadPath, stream, size, onProgress); err != nil {
		return "", err
	}

	if !onProgress(models.ProgressEvent{Kind: models.ProgressFinished, Filename: downloadPath}) {
		os.Remove(downloadPath)
		return "", models.ErrAborted
	}

	if format != models.FormatAudio {
		return downloadPath, nil
	}

	mp3Path := base + models.FormatAudio.Extension()
	if mp3Path == downloadPath {
		return downloadPath, nil
	}
	if err := c.convertToMP3(ctx, downloadPath, mp3Path); err != nil {
		os.Remove(mp3Path)
		os.Remove(downloadPath)
		return "", err
	}
	// 変換元の中間ファイルは削除
	os.Remove(downloadPath)
	return mp3Path, nil
}

// downloadToFile はストリームをファイルに書き出す。失敗・中断時はファイルを削除
func downloadToFile(ctx context.Context, path string, src io.Reader, size int64, onProgress models.ProgressFunc) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	err = copyWithProgress(ctx, file, src, size, func(current, total int64) bool {
		return onProgress(models.ProgressEvent{
			Kind:            models.ProgressDownloading,
			DownloadedBytes: current,
			TotalBytes:      total,
			Filename:        path,
		})
	})
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}

	if err != nil {
		os.Remove(path) // 失敗時はファイルを削除
		if errors.Is(err, models.ErrAborted) {
			return err
		}
		return fmt.Errorf("failed to download: %w", err)
	}
	return nil
}

// copyWithProgress はプログレスコールバック付きでコピー
// コールバックがfalseを返すとmodels.ErrAbortedで中断する
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress func(current, total int64) bool) error {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				written += int64(nw)
				if progress != nil && !progress(written, total) {
					return models.ErrAborted
				}
			}
			if ew != nil {
				return ew
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return nil
}

// convertToMP3 はffmpegで音声ファイルをmp3に変換
func (c *Client) convertToMP3(ctx context.Context, inputPath, outputPath string) error {
	// Check if ffmpeg is available
	if _, err := exec.LookPath(c.ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg to extract audio")
	}

	// -vn: 映像を除外
	// -codec:a libmp3lame -q:a 0: 最高品質のVBR
	// -y: 上書き
	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", "0",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}
