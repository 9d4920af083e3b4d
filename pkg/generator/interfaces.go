package generator

import (
	"context"
	"time"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"
)

// ImageGenerator は、合成済みプロンプトと0〜2枚のコンテキスト画像から
// 1枚の身体パーツ画像を生成する統合窓口です。オーケストレーターはこれにだけ依存します。
type ImageGenerator interface {
	// Generate は、プロンプトとコンテキスト画像を添えて生成を1回実行し、
	// 最初の画像パートをハンドルとして返します。
	Generate(ctx context.Context, prompt string, contexts ...domain.ImageHandle) (domain.ImageHandle, error)
}

// ReferenceSource は、スタイルの参照画像を取得して画像ハンドルへ変換する窓口です。
type ReferenceSource interface {
	Load(ctx context.Context, st style.Style) (domain.ImageHandle, error)
}

// ImageCacher は、参照画像ハンドルをキャッシュするためのインターフェースなのだ。
// go-cache がそのままこれを満たすのだ。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}

// HTTPClient は、HTTPリクエストを実行し、URLからデータを取得するためのインターフェースです。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}
