package youtube

import (
	"context"
	"time"

	"github.com/kkdai/youtube/v2"
)

// DefaultFFmpegPath はffmpegのデフォルトの実行ファイル名
const DefaultFFmpegPath = "ffmpeg"

// Client はYouTube API操作を抽象化するクライアント
type Client struct {
	client     youtube.Client
	ffmpegPath string
}

// Option はClientの設定
type Option func(*Client)

// WithFFmpegPath はmp3変換に使うffmpegのパスを指定
func WithFFmpegPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.ffmpegPath = path
		}
	}
}

// NewClient は新しいYouTubeクライアントを作成
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:     youtube.Client{},
		ffmpegPath: DefaultFFmpegPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VideoInfo は動画のメタ情報
type VideoInfo struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration
}

// GetVideo は動画情報を取得
func (c *Client) GetVideo(ctx context.Context, url string) (*VideoInfo, error) {
	video, err := c.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}

	return &VideoInfo{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
	}, nil
}
