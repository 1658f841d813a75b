package models

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus はダウンロードジョブの状態
type JobStatus string

// ジョブステータス
const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusCancelled   JobStatus = "cancelled"
	JobStatusError       JobStatus = "error"
)

// IsRunning はダウンロード中または後処理中かどうかを返す
func (s JobStatus) IsRunning() bool {
	return s == JobStatusDownloading || s == JobStatusProcessing
}

// IsTerminal は終了状態かどうかを返す
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled || s == JobStatusError
}

// rank は状態遷移の順序（後戻りを防ぐため）
func (s JobStatus) rank() int {
	switch s {
	case JobStatusQueued:
		return 0
	case JobStatusDownloading:
		return 1
	case JobStatusProcessing:
		return 2
	default:
		return 3
	}
}

// Format は出力フォーマット
type Format string

// 出力フォーマット
const (
	FormatVideo Format = "mp4"
	FormatAudio Format = "mp3"
)

// ParseFormat は文字列をFormatに変換
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatVideo, FormatAudio:
		return Format(s), true
	}
	return "", false
}

// Extension は最終出力の拡張子を返す
func (f Format) Extension() string {
	return "." + string(f)
}

// CancelledMessage はキャンセル時にerrorへ入るメッセージ
const CancelledMessage = "Download cancelled."

// Job は1回のダウンロード試行
//
// 値の書き込みはジョブを実行するゴルーチンだけが行い、
// 読み出しはSnapshotを通して任意のゴルーチンから行う。
type Job struct {
	id        string
	url       string
	format    Format
	outputDir string
	createdAt time.Time
	cancel    *CancelSignal

	mu         sync.RWMutex
	status     JobStatus
	percent    int
	title      *string
	filename   *string
	filepath   *string
	errMsg     *string
	finishedAt *time.Time
}

// NewJob はqueued状態の新しいジョブを作成
func NewJob(url string, format Format, outputDir string) *Job {
	return &Job{
		id:        uuid.New().String(),
		url:       url,
		format:    format,
		outputDir: outputDir,
		createdAt: time.Now(),
		cancel:    NewCancelSignal(),
		status:    JobStatusQueued,
	}
}

func (j *Job) ID() string        { return j.id }
func (j *Job) URL() string       { return j.url }
func (j *Job) Format() Format    { return j.format }
func (j *Job) OutputDir() string { return j.outputDir }

// CancelSignal はジョブのキャンセルシグナルを返す
func (j *Job) CancelSignal() *CancelSignal {
	return j.cancel
}

// Status は現在のステータスを返す
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// advance はステータスを前に進める。後戻りと終了状態からの遷移は無視する
// 呼び出し側でロックを保持すること
func (j *Job) advance(to JobStatus) bool {
	if j.status.IsTerminal() || to.rank() < j.status.rank() {
		return false
	}
	j.status = to
	if to.IsTerminal() {
		now := time.Now()
		j.finishedAt = &now
	}
	return true
}

// MarkDownloading はダウンロード進捗を反映
// percentはダウンロード中は減少しない。キャンセル要求後は何もしない
func (j *Job) MarkDownloading(percent int, path string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel.IsSet() || !j.advance(JobStatusDownloading) {
		return
	}
	percent = clampPercent(percent)
	if percent > j.percent {
		j.percent = percent
	}
	if path != "" {
		j.setPath(path)
	}
}

// MarkProcessing はダウンロード完了（後処理開始）を反映
// キャンセル要求後は何もしない
func (j *Job) MarkProcessing() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.cancel.IsSet() && j.advance(JobStatusProcessing) {
		j.percent = 100
	}
}

// Complete はジョブを完了状態にする
// キャンセルが要求済みの場合は完了にせずキャンセル扱いにし、falseを返す
func (j *Job) Complete(title, path string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel.IsSet() {
		j.cancelLocked()
		return false
	}
	if j.status.IsTerminal() {
		return false
	}
	if title != "" {
		j.title = &title
	}
	if path != "" {
		j.setPath(path)
	}
	j.advance(JobStatusCompleted)
	j.percent = 100
	return true
}

// Cancel はジョブをキャンセル状態にする
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelLocked()
}

func (j *Job) cancelLocked() {
	if j.advance(JobStatusCancelled) {
		msg := CancelledMessage
		j.errMsg = &msg
	}
}

// Fail はジョブをエラー状態にする
func (j *Job) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.advance(JobStatusError) {
		j.errMsg = &message
	}
}

// RequestCancel は実行中のジョブにキャンセルを要求する
// ダウンロード中・後処理中でなければ何もせずfalseを返す
func (j *Job) RequestCancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.status.IsRunning() {
		return false
	}
	j.cancel.Set()
	return true
}

func (j *Job) setPath(path string) {
	name := filepath.Base(path)
	j.filepath = &path
	j.filename = &name
}

// Snapshot は現在の状態のコピーを返す
func (j *Job) Snapshot() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return JobView{
		ID:         j.id,
		URL:        j.url,
		Format:     j.format,
		Status:     j.status,
		Percent:    j.percent,
		Title:      j.title,
		Filename:   j.filename,
		Filepath:   j.filepath,
		Error:      j.errMsg,
		CreatedAt:  j.createdAt,
		FinishedAt: j.finishedAt,
	}
}

// JobView はAPIに返すジョブのスナップショット
type JobView struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Format     Format     `json:"format"`
	Status     JobStatus  `json:"status"`
	Percent    int        `json:"percent"`
	Title      *string    `json:"title"`
	Filename   *string    `json:"filename"`
	Filepath   *string    `json:"filepath"`
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"-"`
	FinishedAt *time.Time `json:"-"`
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// PercentOf はダウンロード済みバイト数から進捗率を計算
// totalが0以下の場合は0
func PercentOf(downloaded, total int64) int {
	if total <= 0 || downloaded <= 0 {
		return 0
	}
	return clampPercent(int(downloaded * 100 / total))
}
