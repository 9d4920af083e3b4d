package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/generator"
	"github.com/shouni/go-corpse-kit/pkg/style"
)

// DefaultRateInterval は同一ステージ内の生成呼び出しに適用する流量間隔なのだ。
// バーストをスロット数分だけ許すので、3体モードでも3本のリクエストは
// 同時に発射され、join で全員の完了を待つのだ。
const DefaultRateInterval = 10 * time.Second

// PhraseSource は、ユーザーが操作していないスロットへ与えるフレーズの供給元です。
// 契約上、失敗を外へ出してはいけません（常に使えるフレーズを返すこと）。
type PhraseSource interface {
	Phrase(ctx context.Context, stage domain.Stage, st style.Style) string
}

// Config は Session を構築するための設定です。
type Config struct {
	Style        style.Style
	Slots        []domain.SlotID // 1体なら1要素、3体モードなら3要素
	ImageGen     generator.ImageGenerator
	References   generator.ReferenceSource
	Filler       PhraseSource // スロットが2体以上のときに必須
	RateInterval time.Duration
}

// Session は1ゲーム分の全スロット状態を所有するオーケストレーターです。
// スロット状態の変更はすべて Session のメソッド経由で行われ、並行生成の
// 結果も join 後に呼び出しゴルーチン上でのみ書き込まれます。
// Session 自体は複数ゴルーチンからの同時操作を想定していません。
type Session struct {
	style        style.Style
	slotIDs      []domain.SlotID
	slots        map[domain.SlotID]*domain.Slot
	history      map[domain.SlotID]*domain.History
	imageGen     generator.ImageGenerator
	references   generator.ReferenceSource
	filler       PhraseSource
	rateInterval time.Duration
}

// NewSession は依存関係を検証して Session を初期化します。
func NewSession(cfg Config) (*Session, error) {
	if cfg.ImageGen == nil {
		return nil, fmt.Errorf("ImageGen (generator.ImageGenerator) is required")
	}
	if cfg.References == nil {
		return nil, fmt.Errorf("References (generator.ReferenceSource) is required")
	}
	if len(cfg.Slots) == 0 {
		return nil, fmt.Errorf("少なくとも1つのスロットが必要です")
	}
	if len(cfg.Slots) > 1 && cfg.Filler == nil {
		return nil, fmt.Errorf("複数スロット構成では Filler (PhraseSource) が必須です")
	}

	interval := cfg.RateInterval
	if interval <= 0 {
		interval = DefaultRateInterval
	}

	s := &Session{
		style:        cfg.Style,
		slotIDs:      append([]domain.SlotID(nil), cfg.Slots...),
		imageGen:     cfg.ImageGen,
		references:   cfg.References,
		filler:       cfg.Filler,
		rateInterval: interval,
	}
	s.initSlots()
	return s, nil
}

// initSlots は全スロットと履歴を空の状態で作り直すのだ。
func (s *Session) initSlots() {
	s.slots = make(map[domain.SlotID]*domain.Slot, len(s.slotIDs))
	s.history = make(map[domain.SlotID]*domain.History, len(s.slotIDs))
	for _, id := range s.slotIDs {
		s.slots[id] = domain.NewSlot()
		s.history[id] = &domain.History{}
	}
}

// Style は現在アクティブなスタイルを返すのだ。
func (s *Session) Style() style.Style {
	return s.style
}

// SlotIDs はこのセッションのスロットIDを固定順で返すのだ。
func (s *Session) SlotIDs() []domain.SlotID {
	return append([]domain.SlotID(nil), s.slotIDs...)
}

// Slot は指定IDのスロットを返します。未知のIDは nil です。
func (s *Session) Slot(id domain.SlotID) *domain.Slot {
	return s.slots[id]
}

// HistoryOf は指定スロットの生成履歴のコピーを返します。
func (s *Session) HistoryOf(id domain.SlotID) []domain.ImageHandle {
	h, ok := s.history[id]
	if !ok {
		return nil
	}
	return h.Entries()
}

// Reset はスタイルを切り替え、全スロットと履歴を完全に破棄します。
// 進行中だった生成の結果はリセット後のセッションへ書き込まれません
// （新しい Advance の join 後にしか書き込みが起きないため）。
func (s *Session) Reset(st style.Style) {
	s.style = st
	s.initSlots()
}

// SlotSnapshot は表示・保存用に切り出した1スロット分の状態です。
type SlotSnapshot struct {
	ID      domain.SlotID
	Images  map[domain.Stage]domain.ImageHandle
	History []domain.ImageHandle
}

// Snapshot は全スロットの現在状態を固定順で返すのだ。パブリッシャー用なのだ。
func (s *Session) Snapshot() []SlotSnapshot {
	out := make([]SlotSnapshot, 0, len(s.slotIDs))
	for _, id := range s.slotIDs {
		snap := SlotSnapshot{
			ID:      id,
			Images:  make(map[domain.Stage]domain.ImageHandle),
			History: s.HistoryOf(id),
		}
		for _, st := range domain.Stages {
			if h, ok := s.slots[id].ImageAt(st); ok {
				snap.Images[st] = h
			}
		}
		out = append(out, snap)
	}
	return out
}
