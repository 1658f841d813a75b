package youtube

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"tubefetch/internal/models"

	ytdl "github.com/kkdai/youtube/v2"
)

// Extension はMIMEタイプから拡張子を返す
func Extension(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/mp4"):
		return ".mp4"
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/"):
		return ".audio"
	}
	return ".bin"
}

// selectFormat は出力フォーマットに応じて最適なストリームを選択
func selectFormat(formats ytdl.FormatList, format models.Format) (*ytdl.Format, error) {
	switch format {
	case models.FormatAudio:
		return selectAudioFormat(formats)
	case models.FormatVideo:
		return selectVideoFormat(formats)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// selectAudioFormat は音声のみのフォーマットから最高ビットレートのものを選択
// 同じビットレートならmp4(m4a)を優先
func selectAudioFormat(formats ytdl.FormatList) (*ytdl.Format, error) {
	var candidates []*ytdl.Format
	for i := range formats {
		f := &formats[i]
		// 音声のみのフォーマットをフィルタ
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		// 吹き替えトラックは除外（デフォルトトラックのみ）
		if f.AudioTrack != nil && !f.AudioTrack.AudioIsDefault {
			continue
		}
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no audio formats available")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Bitrate != candidates[j].Bitrate {
			return candidates[i].Bitrate > candidates[j].Bitrate
		}
		return strings.Contains(candidates[i].MimeType, "mp4") && !strings.Contains(candidates[j].MimeType, "mp4")
	})

	return candidates[0], nil
}

// selectVideoFormat は音声付きのmp4を解像度・ビットレート順で選択
// mp4がなければ音声付きの任意のフォーマットにフォールバック
func selectVideoFormat(formats ytdl.FormatList) (*ytdl.Format, error) {
	var mp4, other []*ytdl.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video/") || f.AudioChannels == 0 {
			continue
		}
		if strings.HasPrefix(f.MimeType, "video/mp4") {
			mp4 = append(mp4, f)
		} else {
			other = append(other, f)
		}
	}

	candidates := mp4
	if len(candidates) == 0 {
		candidates = other
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no video formats with audio available")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Height != candidates[j].Height {
			return candidates[i].Height > candidates[j].Height
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})

	return candidates[0], nil
}

// maxTitleBytes はファイル名に使うタイトルの最大バイト数
const maxTitleBytes = 200

// sanitizeFilename はファイル名として使えない文字を置換し、長さを制限
// 前後の空白とドットは除去する（"." や ".." で出力先の外に出ないように）
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, " .")

	// UTF-8の文字境界で切り詰める
	if len(name) > maxTitleBytes {
		cut := maxTitleBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.Trim(name[:cut], " .")
	}

	if name == "" {
		return "download"
	}
	return name
}

// outputBase は出力ファイルの拡張子なしのパスを返す
// 結果は必ずdirの直下になる
func outputBase(dir, title string) (string, error) {
	base := filepath.Join(dir, sanitizeFilename(title))
	if filepath.Dir(base) != filepath.Clean(dir) {
		return "", fmt.Errorf("output path escapes %s: %s", dir, base)
	}
	return base, nil
}
