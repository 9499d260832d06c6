package application

import (
	"eclipse/server/domain"
)

const (
	meterMax   = 100
	staminaMax = 100
)

// Position は正規化スクリーン座標 [0,1] です。
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Player はマッチ内のプレイヤー状態です。マッチ開始時にテンプレートから
// コピーされ、以後は所属マッチだけが変更します。
// 不変条件: 0 <= HP <= MaxHP, 0 <= EclipseMeter <= 100, 0 <= BlockStamina <= 100
type Player struct {
	SessionID domain.SessionID `json:"session_id"`
	UserID    string           `json:"user_id"`
	Username  string           `json:"username"`

	Fighter string `json:"fighter"`
	Rarity  string `json:"rarity"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"max_hp"`
	Damage  int    `json:"damage"`
	Speed   int    `json:"speed"`

	Team         int      `json:"team"`
	EclipseMeter int      `json:"eclipse_meter"`
	BlockStamina int      `json:"block_stamina"`
	Blocking     bool     `json:"blocking"`
	Moving       bool     `json:"moving"`
	RoundsWon    int      `json:"rounds_won"`
	ScreenPos    Position `json:"screen_pos"`
}

// NewPlayer はプロフィールとテンプレートからマッチ用プレイヤーを作ります。
func NewPlayer(sessionID domain.SessionID, profile domain.Profile, tmpl FighterTemplate, team int) Player {
	return Player{
		SessionID:    sessionID,
		UserID:       profile.ID,
		Username:     profile.Username,
		Fighter:      tmpl.Name,
		Rarity:       tmpl.Rarity,
		HP:           tmpl.HP,
		MaxHP:        tmpl.HP,
		Damage:       tmpl.Damage,
		Speed:        tmpl.Speed,
		Team:         team,
		EclipseMeter: 0,
		BlockStamina: staminaMax,
		ScreenPos:    Position{X: 0.5, Y: 0.5},
	}
}

// BuildPlayer は選択中ファイターをカタログから引き、未選択・不明IDなら
// デフォルトにフォールバックしてプレイヤーを作ります。
func BuildPlayer(catalog Catalog, sessionID domain.SessionID, profile domain.Profile, team int) Player {
	tmpl, ok := catalog.Fighter(profile.SelectedFighterID)
	if !ok {
		tmpl = catalog.Default()
	}
	return NewPlayer(sessionID, profile, tmpl, team)
}
