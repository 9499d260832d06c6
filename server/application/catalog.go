package application

// FighterTemplate はカタログ定義のファイター基礎ステータスです。
// カタログ自体は外部コラボレータの持ち物で、コアはマッチ開始時に読むだけです。
type FighterTemplate struct {
	ID     string
	Name   string
	Rarity string
	HP     int
	Damage int
	Speed  int
}

// Catalog はファイターテンプレートの読み取り境界です。
type Catalog interface {
	// Fighter はIDに対応するテンプレートを返します。
	Fighter(id string) (FighterTemplate, bool)
	// Default は未選択・不明ID時のフォールバックテンプレートを返します。
	Default() FighterTemplate
}

// StaticCatalog は組み込みのファイターカタログです。先頭がデフォルトになります。
type StaticCatalog struct {
	fighters []FighterTemplate
	index    map[string]int
}

func NewStaticCatalog(fighters []FighterTemplate) *StaticCatalog {
	index := make(map[string]int, len(fighters))
	for i, f := range fighters {
		index[f.ID] = i
	}
	return &StaticCatalog{fighters: fighters, index: index}
}

// DefaultCatalog は既定の5体を持つカタログを返します。
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog([]FighterTemplate{
		{ID: "fighter_1", Name: "Blaze", Rarity: "Common", HP: 100, Damage: 10, Speed: 5},
		{ID: "fighter_2", Name: "Shade", Rarity: "Rare", HP: 90, Damage: 12, Speed: 6},
		{ID: "fighter_3", Name: "Nova", Rarity: "Epic", HP: 80, Damage: 14, Speed: 7},
		{ID: "fighter_4", Name: "Astra", Rarity: "Legendary", HP: 85, Damage: 16, Speed: 6},
		{ID: "fighter_5", Name: "Mythos", Rarity: "Mythic", HP: 75, Damage: 18, Speed: 8},
	})
}

func (c *StaticCatalog) Fighter(id string) (FighterTemplate, bool) {
	i, ok := c.index[id]
	if !ok {
		return FighterTemplate{}, false
	}
	return c.fighters[i], true
}

func (c *StaticCatalog) Default() FighterTemplate {
	if len(c.fighters) == 0 {
		return FighterTemplate{}
	}
	return c.fighters[0]
}

var _ Catalog = (*StaticCatalog)(nil)
