package models

// FetchRequest は抽出エンジンへのダウンロード要求
type FetchRequest struct {
	URL       string
	Format    Format
	OutputDir string
}

// ProgressKind は進捗イベントの種類
type ProgressKind string

// 進捗イベントの種類
const (
	ProgressDownloading ProgressKind = "downloading"
	ProgressFinished    ProgressKind = "finished"
)

// ProgressEvent はエンジンから通知される進捗
type ProgressEvent struct {
	Kind            ProgressKind
	DownloadedBytes int64
	TotalBytes      int64  // 不明な場合は0
	Filename        string // 書き込み中のファイルパス（判明していれば）
}

// ProgressFunc は進捗コールバック。falseを返すとエンジンは処理を中断し、ErrAbortedを返す
type ProgressFunc func(ProgressEvent) bool

// FetchResult はダウンロード結果
type FetchResult struct {
	Title    string
	Filepath string // エンジンが報告する出力パス
}
