package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, slots []domain.SlotID) (*Session, *mockImageGen, *mockRefSource, *mockPhraseSource) {
	t.Helper()
	imgGen := &mockImageGen{}
	refs := &mockRefSource{}
	filler := &mockPhraseSource{}

	noir, err := style.Find(style.Noirlike)
	require.NoError(t, err)

	s, err := NewSession(Config{
		Style:        noir,
		Slots:        slots,
		ImageGen:     imgGen,
		References:   refs,
		Filler:       filler,
		RateInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return s, imgGen, refs, filler
}

func TestAdvance_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("空フレーズはネットワークへ触れる前に拒否されるのだ", func(t *testing.T) {
		s, imgGen, refs, _ := newTestSession(t, domain.TrioSlots())

		_, err := s.Advance(ctx, domain.StageHead, domain.SlotOne, "   ")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Zero(t, imgGen.callCount(), "画像生成が呼ばれてはいけないのだ")
		assert.Zero(t, refs.called, "参照画像の取得も走ってはいけないのだ")
	})

	t.Run("前段未完成のステージ指定もネットワークへ触れる前に拒否されるのだ", func(t *testing.T) {
		s, imgGen, refs, filler := newTestSession(t, domain.TrioSlots())

		_, err := s.Advance(ctx, domain.StageTorso, domain.SlotOne, "a hairy blazer")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
		assert.Zero(t, imgGen.callCount())
		assert.Zero(t, refs.called)
		assert.Zero(t, filler.called, "フィラー取得も走ってはいけないのだ")
	})

	t.Run("未知のスロット指定は拒否されるのだ", func(t *testing.T) {
		s, _, _, _ := newTestSession(t, domain.TrioSlots())

		_, err := s.Advance(ctx, domain.StageHead, domain.SlotID("corpse9"), "a robot head")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestAdvance_Solo(t *testing.T) {
	ctx := context.Background()

	t.Run("3ステージを自分のフレーズだけで完走できるのだ", func(t *testing.T) {
		s, imgGen, refs, _ := newTestSession(t, []domain.SlotID{domain.SoloSlot})

		headOutcome, err := s.AdvanceSolo(ctx, domain.StageHead, "a fish")
		require.NoError(t, err)
		assert.False(t, headOutcome.Filler)
		assert.Equal(t, 1, refs.called, "headはスタイル参照画像から始まるのだ")

		_, err = s.AdvanceSolo(ctx, domain.StageTorso, "a scaly fish torso")
		require.NoError(t, err)

		_, err = s.AdvanceSolo(ctx, domain.StageLegs, "legs with webbed feet")
		require.NoError(t, err)

		slot := s.Slot(domain.SoloSlot)
		for _, stage := range domain.Stages {
			_, has := slot.ImageAt(stage)
			assert.True(t, has, "ステージ %s の画像が無いのだ", stage)
		}
		assert.Len(t, s.HistoryOf(domain.SoloSlot), 3)

		// torso生成のベースはhead画像であること（ハンドルが埋め込まれている）
		require.Equal(t, 3, imgGen.callCount())
		torsoImg, _ := slot.ImageAt(domain.StageTorso)
		_, payload, err := torsoImg.Decode()
		require.NoError(t, err)
		assert.Contains(t, string(payload), string(headOutcome.Image), "torsoのベースがhead画像でないのだ")
	})

	t.Run("ユーザーのフレーズは合成プロンプトへ原文のまま入るのだ", func(t *testing.T) {
		s, imgGen, _, _ := newTestSession(t, []domain.SlotID{domain.SoloSlot})

		_, err := s.AdvanceSolo(ctx, domain.StageHead, "a fish with legs")
		require.NoError(t, err)

		require.Equal(t, 1, imgGen.callCount())
		assert.Contains(t, imgGen.calls[0].prompt, "a fish with legs")
		assert.Contains(t, imgGen.calls[0].prompt, s.Style().PromptFragment)
	})

	t.Run("headのやり直しで後段が消え履歴には残るのだ", func(t *testing.T) {
		s, _, _, _ := newTestSession(t, []domain.SlotID{domain.SoloSlot})

		_, err := s.AdvanceSolo(ctx, domain.StageHead, "a robot head")
		require.NoError(t, err)
		_, err = s.AdvanceSolo(ctx, domain.StageTorso, "a metal torso")
		require.NoError(t, err)
		_, err = s.AdvanceSolo(ctx, domain.StageLegs, "mechanical legs")
		require.NoError(t, err)

		_, err = s.AdvanceSolo(ctx, domain.StageHead, "a ghost with a mustache")
		require.NoError(t, err)

		slot := s.Slot(domain.SoloSlot)
		_, hasTorso := slot.ImageAt(domain.StageTorso)
		_, hasLegs := slot.ImageAt(domain.StageLegs)
		assert.False(t, hasTorso, "headをやり直したのにtorsoが残っているのだ")
		assert.False(t, hasLegs, "headをやり直したのにlegsが残っているのだ")

		// 破棄された世代も履歴には追記されたままなのだ
		assert.Len(t, s.HistoryOf(domain.SoloSlot), 4)
	})
}

func TestAdvance_Trio(t *testing.T) {
	ctx := context.Background()

	t.Run("アクティブ以外の2体はフィラーで進むのだ", func(t *testing.T) {
		s, imgGen, _, filler := newTestSession(t, domain.TrioSlots())

		outcomes, err := s.Advance(ctx, domain.StageHead, domain.SlotTwo, "a cat person head")
		require.NoError(t, err)
		require.Len(t, outcomes, 3)
		assert.Equal(t, 3, imgGen.callCount())
		assert.Equal(t, 2, filler.called, "フィラーは非アクティブの2体分だけなのだ")

		fillerCount := 0
		for _, oc := range outcomes {
			if oc.Slot == domain.SlotTwo {
				assert.False(t, oc.Filler)
				assert.Equal(t, "a cat person head", oc.Phrase)
			} else {
				assert.True(t, oc.Filler)
				assert.NotEmpty(t, oc.Phrase)
				fillerCount++
			}
			assert.False(t, oc.Image.IsZero())
		}
		assert.Equal(t, 2, fillerCount)
	})

	t.Run("torsoでは各スロットが自分のhead画像をベースにするのだ", func(t *testing.T) {
		s, _, _, _ := newTestSession(t, domain.TrioSlots())

		headOutcomes, err := s.Advance(ctx, domain.StageHead, domain.SlotOne, "a dragon head")
		require.NoError(t, err)

		headBySlot := make(map[domain.SlotID]domain.ImageHandle)
		for _, oc := range headOutcomes {
			headBySlot[oc.Slot] = oc.Image
		}

		torsoOutcomes, err := s.Advance(ctx, domain.StageTorso, domain.SlotTwo, "a wooden torso")
		require.NoError(t, err)

		for _, oc := range torsoOutcomes {
			_, payload, err := oc.Image.Decode()
			require.NoError(t, err)
			assert.Contains(t, string(payload), string(headBySlot[oc.Slot]),
				"スロット %s のtorsoが自分のheadをベースにしていないのだ", oc.Slot)
		}
	})

	t.Run("1体の失敗で3体とも書き込まれないのだ", func(t *testing.T) {
		s, imgGen, _, _ := newTestSession(t, domain.TrioSlots())

		_, err := s.Advance(ctx, domain.StageHead, domain.SlotOne, "a snail head")
		require.NoError(t, err)

		historyBefore := map[domain.SlotID]int{}
		for _, id := range s.SlotIDs() {
			historyBefore[id] = len(s.HistoryOf(id))
		}

		// corpse3 のベース（head画像）を含む呼び出しだけ失敗させるのだ
		corpse3Head, _ := s.Slot(domain.SlotThree).ImageAt(domain.StageHead)
		boom := errors.New("image endpoint exploded")
		imgGen.fn = func(ctx context.Context, prompt string, contexts ...domain.ImageHandle) (domain.ImageHandle, error) {
			for _, c := range contexts {
				if c == corpse3Head {
					return "", boom
				}
			}
			return domain.NewImageHandle("image/png", []byte(prompt)), nil
		}

		_, err = s.Advance(ctx, domain.StageTorso, domain.SlotOne, "a crystalline body")
		require.Error(t, err)

		var genErr *domain.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, domain.SlotThree, genErr.Slot)
		assert.ErrorIs(t, err, boom)

		// 成功していた2体の結果も含めて、一切コミットされていないこと
		for _, id := range s.SlotIDs() {
			_, hasTorso := s.Slot(id).ImageAt(domain.StageTorso)
			assert.False(t, hasTorso, "スロット %s にtorsoが書き込まれてしまったのだ", id)
			assert.Equal(t, historyBefore[id], len(s.HistoryOf(id)), "スロット %s の履歴が変わってしまったのだ", id)
		}

		// 同じステージをそのままやり直せること
		imgGen.fn = nil
		_, err = s.Advance(ctx, domain.StageTorso, domain.SlotOne, "a crystalline body")
		require.NoError(t, err)
	})

	t.Run("参照画像の取得失敗はheadステージ全体の失敗なのだ", func(t *testing.T) {
		imgGen := &mockImageGen{}
		refs := &mockRefSource{err: errors.New("bucket unreachable")}
		noir, _ := style.Find(style.Noirlike)

		s, err := NewSession(Config{
			Style:        noir,
			Slots:        domain.TrioSlots(),
			ImageGen:     imgGen,
			References:   refs,
			Filler:       &mockPhraseSource{},
			RateInterval: time.Millisecond,
		})
		require.NoError(t, err)

		_, err = s.Advance(ctx, domain.StageHead, domain.SlotOne, "a bird head")
		require.Error(t, err)
		assert.Zero(t, imgGen.callCount(), "参照が無いのに生成が走ったのだ")
	})
}

func TestAdvanceSolo_RequiresSingleSlot(t *testing.T) {
	t.Run("3体構成ではAdvanceSoloは使えないのだ", func(t *testing.T) {
		s, _, _, _ := newTestSession(t, domain.TrioSlots())
		_, err := s.AdvanceSolo(context.Background(), domain.StageHead, "a head")
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "1体構成"))
	})
}
