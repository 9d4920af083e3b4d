package style

import (
	"fmt"
	"sort"
)

// ID はスタイル（画風テーマ）の識別子です。
type ID string

const (
	Noirlike       ID = "noirlike"
	Watercolorlike ID = "watercolorlike"
)

// Style は1つの画風テーマの定義です。参照画像のパスと、全生成プロンプトの
// 末尾へ一律に連結されるスタイル指示文を持ちます。起動時に定義され不変です。
type Style struct {
	ID             ID
	Name           string
	ReferencePath  string // 参照画像の場所（ローカルパス / http(s) / gs://）
	PromptFragment string // 合成プロンプトの末尾に付く画風維持の指示
	Description    string // カタログ表示用の解説文。生成には使わない
}

// デフォルトの参照画像パスなのだ。--style-ref フラグで上書きできるのだ。
const (
	DefaultNoirReferencePath       = "assets/noirRef.jpeg"
	DefaultWatercolorReferencePath = "assets/watercolorRef.jpeg"
)

var catalog = map[ID]Style{
	Noirlike: {
		ID:            Noirlike,
		Name:          "Noir",
		ReferencePath: DefaultNoirReferencePath,
		PromptFragment: "Mantain the artistic style of the reference photo: Whimsical Grotesque Illustration with Neo-Traditional Tattoo and Dark Carnival Aesthetic, features eccentric, often unsettling anthropomorphic or clown-like characters. " +
			"It is defined by dominant, thick black outlines and fine, illustrative hatching for textures, all rendered in a high-contrast, limited palette of black and white, strikingly accented by bright red for key features like lips, beaks, or makeup.",
		Description: "高コントラストの白黒インクイラストに赤の差し色。サーカス的でグロテスク、ただし風刺的で古風なコメディ調を保つスタイルです。",
	},
	Watercolorlike: {
		ID:            Watercolorlike,
		Name:          "Watercolor",
		ReferencePath: DefaultWatercolorReferencePath,
		PromptFragment: "Mantain the artistic style of the reference photo: flowing watercolor paintings with gentle color transitions and organic forms. " +
			"It is characterized by translucent layers of paint, subtle color bleeding, and a dreamy, ethereal quality. The style uses a muted, pastel color palette with soft edges and natural color gradients",
		Description: "淡いパステル調の水彩。にじみと柔らかな輪郭、夢のような透明感が特徴のスタイルです。",
	},
}

// Find はIDからスタイル定義を取得します。未登録のIDはエラーです。
func Find(id ID) (Style, error) {
	s, ok := catalog[id]
	if !ok {
		return Style{}, fmt.Errorf("未登録のスタイルです: %q（利用可能: %v）", id, IDs())
	}
	return s, nil
}

// IDs は登録済みスタイルIDをソート済みで返すのだ。ヘルプ表示用なのだ。
func IDs() []ID {
	ids := make([]ID, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All は全スタイル定義をID順で返します。カタログ自体は変更できません。
func All() []Style {
	out := make([]Style, 0, len(catalog))
	for _, id := range IDs() {
		out = append(out, catalog[id])
	}
	return out
}
