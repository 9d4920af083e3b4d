package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultTextModel    = "gemini-2.5-flash-lite"          // お任せフレーズ生成用
	DefaultImageModel   = "gemini-2.5-flash-image-preview" // 体パーツ画像生成用
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRateInterval = 10 * time.Second
	DefaultCacheTTL     = 30 * time.Minute // スタイル参照画像キャッシュの有効期限
	DefaultLocalDir     = "output"         // パブリッシャーで使用するデフォルト保存先なのだ
)

// Config はアプリケーション全体の環境設定（APIキーなど）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string

	Options RunOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultTextModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
	}
	return cfg
}

// RunOptions は CLI フラグから渡される実行時のパラメータなのだ。
type RunOptions struct {
	// スタイル関連
	StyleID      string // --style
	StyleRefPath string // --style-ref: カタログの参照画像パスを上書きする

	// 出力関連
	OutputDir string // --output-dir

	// AI挙動設定
	AIModel    string // --model: お任せフレーズ生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval
}
