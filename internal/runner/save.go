package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/pipeline"
	"github.com/shouni/go-corpse-kit/pkg/publisher"
)

// saveSeq は同一実行内でのステージ保存に振る連番なのだ。
// やり直し分も別ファイルとして残るようにするのだ。
var saveSeq atomic.Int64

// saveStageImage はコミット済みのステージ画像を途中保存するのだ。
// 途中保存の失敗はゲーム進行を止めない（最終パブリッシュで再保存される）。
func saveStageImage(ctx context.Context, pub *publisher.CorpsePublisher, outputDir string, stage domain.Stage, outcome pipeline.SlotOutcome) {
	name := fmt.Sprintf("%s_%s_%d.%s", outcome.Slot, stage, saveSeq.Add(1), outcome.Image.Ext())
	saved, err := pub.SaveImage(ctx, outputDir, name, outcome.Image)
	if err != nil {
		slog.WarnContext(ctx, "ステージ画像の途中保存に失敗したのだ",
			"slot", outcome.Slot, "stage", stage.String(), "error", err)
		return
	}
	slog.InfoContext(ctx, "ステージ画像を保存したのだ", "path", saved)
}
