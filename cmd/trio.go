package cmd

import (
	"log/slog"

	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// trioCmd は、3体のコープスを同時に育てるサブコマンドなのだ。
// 担当スロットはステージごとに持ち回りで、残り2体はAIのお任せフレーズで進むのだ。
var trioCmd = &cobra.Command{
	Use:   "trio",
	Short: "3体のコープスを同時に組み立てるのだ。",
	Long: `各ステージで自分のフレーズは担当の1体に使われ、残りの2体にはAIが考えた
お任せフレーズが充てられるのだ。3体は同じステージをまとめて進み、
1体でも失敗したらそのステージは3体ともやり直しになるのだ。`,
	RunE: trioCommand,
}

// trioCommand は、trio サブコマンドの実行ロジック本体なのだ。
func trioCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 環境変数から基本設定をロード
	cfg := config.LoadConfig()

	// 2. コマンドライン引数の値を反映
	cfg.Options = opts
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel

	slog.Info("3体コープスモードを準備するのだ！",
		"style", opts.StyleID,
		"output_dir", opts.OutputDir,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel)

	// 3. パイプライン実行
	return pipeline.ExecuteTrio(ctx, cfg)
}
