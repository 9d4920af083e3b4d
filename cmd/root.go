package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/pkg/style"

	"github.com/spf13/cobra"
)

var opts config.RunOptions

// rootCmd は corpse コマンドのエントリポイントなのだ。
var rootCmd = &cobra.Command{
	Use:   "corpse",
	Short: "AIと遊ぶ「優美な死体」お絵かきゲームなのだ。",
	Long: `head → torso → legs の順にフレーズを入力して、AIに体のパーツを描かせていく
「優美な死体（exquisite corpse）」ゲームなのだ。一人で1体を仕上げる solo モードと、
お任せフレーズ入りで3体を同時に育てる trio モードがあるのだ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- スタイル関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.StyleID, "style", "s", string(style.Noirlike), "画風スタイルIDなのだ（noirlike / watercolorlike）。")
	rootCmd.PersistentFlags().StringVar(&opts.StyleRefPath, "style-ref", "", "スタイル参照画像のパス（URL / gs://... / ローカル）を上書きするのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultLocalDir, "完成したコープスを保存するディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultTextModel, "お任せフレーズ生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "画像生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.RateInterval, "rate-interval", config.DefaultRateInterval, "画像生成リクエストの流量間隔なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	if _, err := style.Find(style.ID(opts.StyleID)); err != nil {
		return fmt.Errorf("エラー: --style の値が不正なのだ: %w", err)
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(soloCmd, trioCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
