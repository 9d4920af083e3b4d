package cmd

import (
	"log/slog"

	"github.com/shouni/go-corpse-kit/internal/config"
	"github.com/shouni/go-corpse-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// soloCmd は、1体のコープスを自分のフレーズだけで仕上げるサブコマンドなのだ。
var soloCmd = &cobra.Command{
	Use:   "solo",
	Short: "1体のコープスを対話的に組み立てるのだ。",
	Long: `head → torso → legs の3ステージを順番に進めて、1体のコープスを完成させるのだ。
各ステージのフレーズはすべて自分で入力するのだ。失敗したステージは何度でもやり直せるのだ。`,
	RunE: soloCommand,
}

// soloCommand は、solo サブコマンドの実行ロジック本体なのだ。
func soloCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 環境変数から基本設定をロード
	cfg := config.LoadConfig()

	// 2. コマンドライン引数の値を反映
	cfg.Options = opts
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel

	slog.Info("一人コープスモードを準備するのだ！",
		"style", opts.StyleID,
		"output_dir", opts.OutputDir,
		"image_model", cfg.GeminiImageModel)

	// 3. パイプライン実行
	return pipeline.ExecuteSolo(ctx, cfg)
}
