package prompt

import (
	"strings"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"
)

// 身体パーツごとの生成指示テンプレートなのだ。{prompt} がユーザーのフレーズに
// 置き換わるのだ。head だけは「参照画像の頭を丸ごと差し替える」指示で、
// torso / legs は「既存の絵の下へ描き足す」指示になっているのだよ。
const (
	HeadReplaceTemplate = "Entirely replace the head in this reference image with a head of {prompt}. " +
		"Do NOT keep the head in the reference image, create an entirely new head and place in the same location (upper edge) as the reference phot."

	HeadContinueTemplate = "Continue this drawing by adding a {prompt} head above the existing torso. Build upon the current image."

	TorsoContinueTemplate = "Continue this drawing by adding the torso of a {prompt} below the existing head. " +
		"Seamlessly, build upon the current image so that the torso is connected to the head-- stop your drawing where the legs should be."

	LegsContinueTemplate = "Continue this drawing by adding {prompt} legs below the existing torso. " +
		"Seamlessly, build upon the current image so that the legs are connected to the torso."
)

const placeholder = "{prompt}"

// TemplateFor は、ステージに応じた標準テンプレートを返します。
// head は差し替え（replace）、torso / legs は継続（continue）です。
func TemplateFor(stage domain.Stage) string {
	switch stage {
	case domain.StageHead:
		return HeadReplaceTemplate
	case domain.StageTorso:
		return TorsoContinueTemplate
	default:
		return LegsContinueTemplate
	}
}

// Compose は最終的な生成プロンプトを組み立てる純粋関数です。
// テンプレートへフレーズを埋め込み、半角スペースを挟んでスタイル指示を連結します。
// フレーズが空でないことの検証は呼び出し側（オーケストレーター）の責務です。
func Compose(stage domain.Stage, phrase string, st style.Style) string {
	body := strings.ReplaceAll(TemplateFor(stage), placeholder, phrase)
	return body + " " + st.PromptFragment
}
