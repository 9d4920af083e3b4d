package domain

import (
	"fmt"
	"strings"
)

// Stage は、コープス（死体絵）を構成する身体パーツの生成段階です。
// head → torso → legs の厳密な順序を持ち、前段が存在しない限り次へ進めません。
type Stage int

const (
	StageHead Stage = iota
	StageTorso
	StageLegs
)

// Stages は生成順に並んだ全ステージのリストなのだ。
var Stages = []Stage{StageHead, StageTorso, StageLegs}

// String はステージ名を小文字の英語で返します。プロンプトやファイル名にそのまま使えます。
func (s Stage) String() string {
	switch s {
	case StageHead:
		return "head"
	case StageTorso:
		return "torso"
	case StageLegs:
		return "legs"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Prev は一つ前のステージを返すのだ。先頭（head）の場合は ok=false を返すのだよ。
func (s Stage) Prev() (Stage, bool) {
	if s <= StageHead {
		return StageHead, false
	}
	return s - 1, true
}

// Next は一つ後のステージを返すのだ。最終段（legs）の場合は ok=false なのだ。
func (s Stage) Next() (Stage, bool) {
	if s >= StageLegs {
		return StageLegs, false
	}
	return s + 1, true
}

// ParseStage は文字列からステージを解決します。大文字小文字は区別しません。
func ParseStage(raw string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "head":
		return StageHead, nil
	case "torso":
		return StageTorso, nil
	case "legs":
		return StageLegs, nil
	}
	return StageHead, fmt.Errorf("未知のステージ名です: %q", raw)
}

// SlotID は独立した1体のコープス（ビルドパイプライン）の識別子です。
type SlotID string

const (
	SlotOne   SlotID = "corpse1"
	SlotTwo   SlotID = "corpse2"
	SlotThree SlotID = "corpse3"

	// SoloSlot は一人プレイモードで使う唯一のスロットIDなのだ。
	SoloSlot SlotID = "corpse"
)

// TrioSlots は3体モードで使うスロットIDを固定順で返すのだ。
// マップ走査の順序揺れを避けるため、常にこのスライスを正とするのだよ。
func TrioSlots() []SlotID {
	return []SlotID{SlotOne, SlotTwo, SlotThree}
}

// Slot は1体分のステージ別画像を保持します。
// 不変条件: torso があるなら head がある、legs があるなら torso がある。
// この不変条件は SetImage が維持します（前段の再生成は後段を無効化する）。
type Slot struct {
	images [3]ImageHandle // head/torso/legs の3枠
}

// NewSlot は空のスロットを返すのだ。
func NewSlot() *Slot {
	return &Slot{}
}

// ImageAt は指定ステージの画像ハンドルを返します。未生成なら ok=false です。
func (sl *Slot) ImageAt(stage Stage) (ImageHandle, bool) {
	h := sl.images[stage]
	return h, !h.IsZero()
}

// ReadyFor は、指定ステージの生成を開始できる状態かを返すのだ。
// head は常に開始可能、それ以降は直前のステージが埋まっている必要があるのだ。
func (sl *Slot) ReadyFor(stage Stage) bool {
	prev, ok := stage.Prev()
	if !ok {
		return true
	}
	_, has := sl.ImageAt(prev)
	return has
}

// SetImage は指定ステージへ画像を書き込み、それより後のステージをすべて消去します。
// 前段をやり直した時点で、その上に積まれていた後段の結果は意味を失うためです。
func (sl *Slot) SetImage(stage Stage, h ImageHandle) {
	sl.images[stage] = h
	for s := stage + 1; s <= StageLegs; s++ {
		sl.images[s] = ImageHandle("")
	}
}

// CurrentStage は、このスロットで最後に完成したステージを返します。
// まだ何も無い場合は ok=false です。
func (sl *Slot) CurrentStage() (Stage, bool) {
	for i := len(Stages) - 1; i >= 0; i-- {
		if _, has := sl.ImageAt(Stages[i]); has {
			return Stages[i], true
		}
	}
	return StageHead, false
}

// Clear はスロットを空の状態に戻すのだ。スタイル切替時のリセットで使うのだ。
func (sl *Slot) Clear() {
	for s := StageHead; s <= StageLegs; s++ {
		sl.images[s] = ImageHandle("")
	}
}

// History は1スロット分の生成履歴です。表示専用の追記型リストであり、
// 生成ロジックが読み返すことはありません。
type History struct {
	entries []ImageHandle
}

// Append は履歴の末尾に画像ハンドルを追加するのだ。
func (h *History) Append(img ImageHandle) {
	h.entries = append(h.entries, img)
}

// Entries は履歴のコピーを返します。内部スライスは外へ漏らしません。
func (h *History) Entries() []ImageHandle {
	out := make([]ImageHandle, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len は履歴の件数を返すのだ。
func (h *History) Len() int {
	return len(h.entries)
}
