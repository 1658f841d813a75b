package models

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrAborted はプログレスコールバックが中断を要求したときにエンジンが返すエラー
var ErrAborted = errors.New("download aborted")

// CancelSignal は一度だけセットできるキャンセルフラグ
// リセットはできない。複数ゴルーチンから安全に使える
type CancelSignal struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

// NewCancelSignal は新しいCancelSignalを作成
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{done: make(chan struct{})}
}

// Set はフラグをセットする。最初の呼び出しのときだけtrueを返す
func (s *CancelSignal) Set() bool {
	first := s.set.CompareAndSwap(false, true)
	s.once.Do(func() { close(s.done) })
	return first
}

// IsSet はフラグがセット済みかどうかを返す
func (s *CancelSignal) IsSet() bool {
	return s.set.Load()
}

// Done はフラグがセットされたときに閉じられるチャネルを返す
func (s *CancelSignal) Done() <-chan struct{} {
	return s.done
}
