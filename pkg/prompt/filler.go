package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-corpse-kit/pkg/domain"
	"github.com/shouni/go-corpse-kit/pkg/style"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// FillerSystemInstruction は、フィラーフレーズ生成用のシステム指示なのだ。
// 3体モードでユーザーが操作していないスロットに与える「お楽しみ」フレーズを
// AIに考えさせるための創作ブリーフと例文集なのだよ。
const FillerSystemInstruction = `You're a master player of the art game exquisite corpse, with a keen eye for describing unique anthropomorphic items. Your task is to generate a single, unique prompt for an exquisite corpse body part when given either a body part.

AVAILABLE BODY PARTS: head, torso or legs.

Below are good examples meant to guide you on the type of creatively unique prompts:

DO NOT include very colorful descriptive words that might steer to specific colors.

Head:
    'a tucan with a red beak and wild curly hair',
    'a bird person with a long beak and feathered head',
    'a cat person with pointy ears and whiskers',
    'a robot with metallic head and glowing eyes',
    'a monster with horns and multiple eyes',
    'a fairy with delicate wings and flower crown',
    'a dragon with scales blowing smoke',
    'a ghost with a mustache',
    'a snail with two hats over its eyes',
    'a cockatoo with star eyes'

Torso:
    'a hairy blazer',
    'a slender torso with flowing robes',
    'a robotic body with exposed gears',
    'a furry sweater with colorful patches',
    'a scaly fish torso with armored plates',
    'a inverted lightbulb',
    'a wooden torso with carved patterns',
    'a crystalline body with geometric facets',
    'a metallic torso with circuit patterns',
    'a fluffy body with cloud-like texture'

Legs:
    'long spindly legs with bird-like feet',
    'thick muscular legs with hooves',
    'mechanical legs with hydraulic joints',
    'slender legs with webbed feet riding a tricylce',
    'scaly legs with clawed toes',
    'furry legs with paw-like feet wearing a hula skirt',
    'crystalline legs with geometric shapes',
    'metallic legs with wheel attachments',
    'wooden legs with root-like feet',
    'transparent legs with glowing bones'
`

// フィラーフレーズの妥当性判定に使う閾値なのだ。
const (
	fillerMinLen = 5
	fillerMaxLen = 80
)

// fallbackPhrases は、AI生成が失敗・不適切だった場合に使うステージ×スタイル別の
// 固定フレーズ表です。フィラーは装飾であり、インタラクティブな進行を絶対に
// 止めないために必ずここへ落ちられるようにしてあります。
var fallbackPhrases = map[domain.Stage]map[style.ID]string{
	domain.StageHead: {
		style.Noirlike:       "a detective with a magnifying glass monocle",
		style.Watercolorlike: "a fairy with butterfly antennae and flower eyes",
	},
	domain.StageTorso: {
		style.Noirlike:       "a chest with a pocket watch and chain",
		style.Watercolorlike: "a body made of swirling rainbow clouds",
	},
	domain.StageLegs: {
		style.Noirlike:       "legs with spats and tap dance shoes",
		style.Watercolorlike: "legs that fade into rainbow mist",
	},
}

// FallbackPhrase はステージとスタイルに対応する固定フィラーフレーズを返すのだ。
// 未登録の組み合わせでも空文字は返さないのだ。
func FallbackPhrase(stage domain.Stage, id style.ID) string {
	if byStyle, ok := fallbackPhrases[stage]; ok {
		if p, ok := byStyle[id]; ok {
			return p
		}
		// スタイル未登録でも、同ステージのどれかを決定論的に返すのだ
		for _, sid := range style.IDs() {
			if p, ok := byStyle[sid]; ok {
				return p
			}
		}
	}
	return "a mysterious figure drawn from imagination"
}

// FillerSource は、ユーザーが操作していないスロット用のフレーズを供給します。
// Phrase は契約上エラーを外へ出しません。通信失敗も不適切な応答もすべて
// フォールバック表で吸収されます。
type FillerSource struct {
	aiClient gemini.GenerativeModel
	model    string
}

// NewFillerSource は FillerSource を初期化するのだ。
func NewFillerSource(aiClient gemini.GenerativeModel, model string) (*FillerSource, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return &FillerSource{aiClient: aiClient, model: model}, nil
}

// Phrase は1つのフィラーフレーズを返すのだ。戻り値は常に非空で80文字以下、
// 拒否文言を含まないことが保証されるのだ。
func (f *FillerSource) Phrase(ctx context.Context, stage domain.Stage, st style.Style) string {
	parts := []*genai.Part{{Text: fmt.Sprintf("Generate a creative prompt for a %s", stage)}}

	resp, err := f.aiClient.GenerateWithParts(ctx, f.model, parts, gemini.GenerateOptions{
		SystemPrompt: FillerSystemInstruction,
	})
	if err != nil {
		slog.WarnContext(ctx, "フィラーフレーズの生成に失敗したため固定フレーズを使うのだ",
			"stage", stage.String(), "style", st.ID, "error", err)
		return FallbackPhrase(stage, st.ID)
	}

	phrase := SanitizePhrase(resp.Text)
	if !ValidPhrase(phrase) {
		slog.InfoContext(ctx, "フィラーフレーズが基準を満たさないため固定フレーズを使うのだ",
			"stage", stage.String(), "style", st.ID, "raw", resp.Text)
		return FallbackPhrase(stage, st.ID)
	}

	return phrase
}

// 応答の先頭に付きがちな "Head:" / "Torso:" / "Legs:" ラベルを剥がす正規表現なのだ。
var labelPrefix = regexp.MustCompile(`(?i)^(head|torso|legs):\s*`)

// SanitizePhrase は、AI応答から余計なラベルと前後の引用符・空白を取り除きます。
func SanitizePhrase(raw string) string {
	phrase := strings.TrimSpace(raw)
	phrase = labelPrefix.ReplaceAllString(phrase, "")
	phrase = strings.Trim(phrase, `"'`)
	return strings.TrimSpace(phrase)
}

// ValidPhrase は、フレーズがフィラーとして使える品質かを判定します。
// 短すぎ・長すぎ・拒否文言入りはすべて不合格です。
func ValidPhrase(phrase string) bool {
	if len(phrase) < fillerMinLen || len(phrase) > fillerMaxLen {
		return false
	}
	if strings.Contains(phrase, "I cannot") || strings.Contains(phrase, "I am unable") {
		return false
	}
	return true
}
