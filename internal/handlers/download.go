package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"tubefetch/internal/models"
	"tubefetch/internal/worker"

	"github.com/kataras/golog"
	"github.com/labstack/echo/v4"
)

// JobService はダウンロードジョブの操作
type JobService interface {
	Start(url string, format models.Format, outputDir string) (models.JobView, error)
	Progress() (models.JobView, bool)
	Cancel() bool
	History() []models.JobView
}

// URLValidator はURLの妥当性を判定する
type URLValidator func(url string) bool

// DownloadHandler はダウンロードAPIのハンドラー
type DownloadHandler struct {
	jobs     JobService
	validURL URLValidator
}

// NewDownloadHandler は新しいDownloadHandlerを作成
func NewDownloadHandler(jobs JobService, validURL URLValidator) *DownloadHandler {
	return &DownloadHandler{jobs: jobs, validURL: validURL}
}

// Register はルートを登録
func (h *DownloadHandler) Register(e *echo.Echo) {
	e.GET("/", h.Home)
	e.POST("/download", h.Start)
	e.GET("/progress", h.Progress)
	e.POST("/cancel", h.Cancel)
	e.GET("/history", h.History)
}

// DownloadRequest はダウンロード開始リクエスト
type DownloadRequest struct {
	URL       string `json:"url"`
	Format    string `json:"format"`
	OutputDir string `json:"output_dir"`
}

// Start はダウンロードを開始
// POST /download
func (h *DownloadHandler) Start(c echo.Context) error {
	var req DownloadRequest
	// 壊れたJSONは空リクエストとして扱い、以下の検証で弾く
	_ = c.Bind(&req)

	url := strings.TrimSpace(req.URL)
	if url == "" || !h.validURL(url) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Enter a valid YouTube URL."})
	}

	format, ok := models.ParseFormat(req.Format)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Format must be mp4 or mp3."})
	}

	if req.OutputDir == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Save folder is required."})
	}

	// 保存先ディレクトリがなければ作成
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		golog.Warnf("Failed to create output directory %s: %v", req.OutputDir, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create save folder: " + err.Error()})
	}

	job, err := h.jobs.Start(url, format, req.OutputDir)
	if errors.Is(err, worker.ErrAlreadyRunning) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]models.JobView{"job": job})
}

// Progress は現在のジョブの進捗を取得
// GET /progress
func (h *DownloadHandler) Progress(c echo.Context) error {
	job, ok := h.jobs.Progress()
	if !ok {
		return c.JSON(http.StatusOK, map[string]string{"status": "idle"})
	}
	return c.JSON(http.StatusOK, job)
}

// Cancel は実行中のジョブをキャンセル
// POST /cancel
func (h *DownloadHandler) Cancel(c echo.Context) error {
	if !h.jobs.Cancel() {
		return c.JSON(http.StatusConflict, map[string]string{"error": "No active download to cancel."})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelling"})
}

// History は完了済みジョブ一覧を取得（新しい順）
// GET /history
func (h *DownloadHandler) History(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]models.JobView{"history": h.jobs.History()})
}
