package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/prompt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SlotOutcome は、1回のステージ前進で1スロットに起きたことの記録です。
type SlotOutcome struct {
	Slot   domain.SlotID
	Phrase string // 実際に使われたフレーズ（ユーザー入力 or フィラー）
	Filler bool   // フィラー由来なら true
	Image  domain.ImageHandle
}

// slotPlan は1スロット分の生成計画なのだ。役割（ユーザー駆動かフィラー駆動か）は
// ステージ前進の冒頭で一度だけ解決され、以降はこの計画だけを見るのだ。
type slotPlan struct {
	id     domain.SlotID
	phrase string
	filler bool
	base   domain.ImageHandle
}

// Advance はアクティブスロットのフレーズを使って全スロットを1ステージ進めます。
// 契約（all-or-nothing）:
//   - フレーズ空・前段未完成は ValidationError としてネットワークへ触れる前に返す
//   - 非アクティブスロットのフレーズはフィラー供給元から並行取得（失敗しない）
//   - 全スロットの生成を並行実行し、ひとつでも失敗したら何も書き込まない
//   - 全部成功した場合のみ、各スロットへ画像を書き込み（後段は消去）履歴へ追記する
func (s *Session) Advance(ctx context.Context, stage domain.Stage, active domain.SlotID, phrase string) ([]SlotOutcome, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, domain.NewValidationError("フレーズが空です")
	}
	if _, ok := s.slots[active]; !ok {
		return nil, domain.NewValidationError("未知のスロットです: %s", active)
	}
	for _, id := range s.slotIDs {
		if !s.slots[id].ReadyFor(stage) {
			return nil, domain.NewValidationError("スロット '%s' は %s の前段が未完成です", id, stage)
		}
	}

	plans, err := s.buildPlans(ctx, stage, active, phrase)
	if err != nil {
		return nil, err
	}

	results, err := s.generateAll(ctx, stage, plans)
	if err != nil {
		// ここで部分コミットはしない。成功していた残りの結果も破棄する
		return nil, err
	}

	// join が完了した呼び出しゴルーチン上でのみ、状態をまとめて書き込む
	outcomes := make([]SlotOutcome, len(plans))
	for i, plan := range plans {
		s.slots[plan.id].SetImage(stage, results[i])
		s.history[plan.id].Append(results[i])
		outcomes[i] = SlotOutcome{
			Slot:   plan.id,
			Phrase: plan.phrase,
			Filler: plan.filler,
			Image:  results[i],
		}
	}

	slog.InfoContext(ctx, "ステージ前進が完了したのだ",
		"stage", stage.String(), "slots", len(plans), "style", s.style.ID)
	return outcomes, nil
}

// AdvanceSolo は1体構成のセッション用の便宜メソッドなのだ。
// フィラーは使わず、唯一のスロットをアクティブとして進めるのだ。
func (s *Session) AdvanceSolo(ctx context.Context, stage domain.Stage, phrase string) (SlotOutcome, error) {
	if len(s.slotIDs) != 1 {
		return SlotOutcome{}, fmt.Errorf("AdvanceSolo は1体構成のセッション専用です（現在 %d 体）", len(s.slotIDs))
	}
	outcomes, err := s.Advance(ctx, stage, s.slotIDs[0], phrase)
	if err != nil {
		return SlotOutcome{}, err
	}
	return outcomes[0], nil
}

// buildPlans は役割の解決・フィラー取得・ベース画像の決定をまとめて行うのだ。
func (s *Session) buildPlans(ctx context.Context, stage domain.Stage, active domain.SlotID, phrase string) ([]slotPlan, error) {
	plans := make([]slotPlan, len(s.slotIDs))
	for i, id := range s.slotIDs {
		plans[i] = slotPlan{id: id, filler: id != active}
		if id == active {
			plans[i].phrase = phrase
		}
	}

	// 非アクティブスロットのフレーズを並行取得する。PhraseSource は失敗しない契約
	if s.filler != nil {
		eg, egCtx := errgroup.WithContext(ctx)
		for i := range plans {
			if !plans[i].filler {
				continue
			}
			i := i
			eg.Go(func() error {
				plans[i].phrase = s.filler.Phrase(egCtx, stage, s.style)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	// ベース画像: head はスタイル参照を全スロットで共有、以降は各スロット自身の前段画像
	if stage == domain.StageHead {
		ref, err := s.references.Load(ctx, s.style)
		if err != nil {
			return nil, err
		}
		for i := range plans {
			plans[i].base = ref
		}
		return plans, nil
	}

	prev, _ := stage.Prev()
	for i := range plans {
		base, ok := s.slots[plans[i].id].ImageAt(prev)
		if !ok {
			// ReadyFor 検証済みなのでここへは来ないはずだが、念のため
			return nil, domain.NewValidationError("スロット '%s' の %s 画像がありません", plans[i].id, prev)
		}
		plans[i].base = base
	}
	return plans, nil
}

// generateAll は全スロット分の生成呼び出しを並行実行し、全成功時のみ結果を返すのだ。
// バーストをスロット数分許したリミッターなので、通常は全リクエストが同時に出るのだ。
func (s *Session) generateAll(ctx context.Context, stage domain.Stage, plans []slotPlan) ([]domain.ImageHandle, error) {
	results := make([]domain.ImageHandle, len(plans))
	eg, egCtx := errgroup.WithContext(ctx)
	limiter := rate.NewLimiter(rate.Every(s.rateInterval), len(plans))

	for i, plan := range plans {
		i, plan := i, plan

		eg.Go(func() error {
			if err := limiter.Wait(egCtx); err != nil {
				return err
			}

			composed := prompt.Compose(stage, plan.phrase, s.style)
			slog.InfoContext(egCtx, "パーツを生成中...",
				"slot", plan.id, "stage", stage.String(), "filler", plan.filler)

			img, err := s.imageGen.Generate(egCtx, composed, plan.base)
			if err != nil {
				return &domain.GenerationError{Slot: plan.id, Stage: stage, Err: err}
			}

			results[i] = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
