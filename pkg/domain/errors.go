package domain

import (
	"errors"
	"fmt"
)

// ErrNoImage は、生成エンドポイントが応答したものの画像パートを一つも
// 含まなかったことを示すソフト失敗なのだ。
var ErrNoImage = errors.New("応答に画像データが含まれていませんでした")

// ValidationError はユーザー操作の前提条件が満たされていないことを示します。
// ネットワークへ一切触れる前に検出され、その場で通知へ変換されるべきエラーです。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("入力が不正です: %s", e.Reason)
}

// NewValidationError は理由付きのバリデーションエラーを作るのだ。
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// FetchError は静的アセット（スタイル参照画像など）の取得失敗を表します。
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("参照画像 '%s' の取得に失敗しました: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// GenerationError は生成エンドポイントの失敗を表します。到達はしたが使える
// 画像が得られなかった場合（ErrNoImage）も、通信自体が落ちた場合も含みます。
type GenerationError struct {
	Slot  SlotID
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("スロット '%s' の %s 生成に失敗しました: %v", e.Slot, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsValidation はバリデーション系のエラーかどうかを判定するヘルパーなのだ。
// 呼び出し側はこれで「即時通知で済むか、失敗通知か」を分岐できるのだ。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
