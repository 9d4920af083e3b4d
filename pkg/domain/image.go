package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ImageHandle は生成済み・取得済み画像を表す不透明な値です。
// 実体は data URI（data:<mime>;base64,<payload>）ですが、ローダー・クライアント・
// セッションの間では中身を覗かずそのまま受け渡すのが前提です。
// デコードするのは生成リクエストの組み立て時と保存時だけです。
type ImageHandle string

// NewImageHandle は MIME タイプと生バイト列から画像ハンドルを作るのだ。
func NewImageHandle(mimeType string, data []byte) ImageHandle {
	return ImageHandle(fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)))
}

// IsZero は未設定のハンドルかどうかを返すのだ。
func (h ImageHandle) IsZero() bool {
	return h == ""
}

// Decode はハンドルを MIME タイプと生バイト列に分解します。
// data URI として解釈できない場合はエラーを返します。
func (h ImageHandle) Decode() (mimeType string, data []byte, err error) {
	raw := string(h)
	if !strings.HasPrefix(raw, "data:") {
		return "", nil, fmt.Errorf("data URI ではない画像ハンドルです")
	}
	rest := strings.TrimPrefix(raw, "data:")

	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return "", nil, fmt.Errorf("base64 エンコードされていない画像ハンドルです")
	}

	mimeType = rest[:sep]
	payload := rest[sep+len(";base64,"):]

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("画像ハンドルのデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}

// Ext は MIME タイプから保存用の拡張子を推測するのだ。不明な場合は "bin" なのだ。
func (h ImageHandle) Ext() string {
	mimeType, _, err := h.Decode()
	if err != nil {
		return "bin"
	}
	switch mimeType {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
