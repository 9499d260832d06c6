package application

// ActionKind はクライアントが送信できる戦闘アクションです。
type ActionKind uint8

const (
	ActionUnknown ActionKind = iota
	ActionLightAttack
	ActionHeavyAttack
	ActionBlock
	ActionAbility
	ActionEclipse
)

const (
	actionLightAttackName = "LIGHT_ATTACK"
	actionHeavyAttackName = "HEAVY_ATTACK"
	actionBlockName       = "BLOCK"
	actionAbilityName     = "ABILITY"
	actionEclipseName     = "ECLIPSE"
)

// ParseActionKind はワイヤー表現をActionKindに変換します。不明な値はActionUnknownです。
func ParseActionKind(s string) ActionKind {
	switch s {
	case actionLightAttackName:
		return ActionLightAttack
	case actionHeavyAttackName:
		return ActionHeavyAttack
	case actionBlockName:
		return ActionBlock
	case actionAbilityName:
		return ActionAbility
	case actionEclipseName:
		return ActionEclipse
	default:
		return ActionUnknown
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionLightAttack:
		return actionLightAttackName
	case ActionHeavyAttack:
		return actionHeavyAttackName
	case ActionBlock:
		return actionBlockName
	case ActionAbility:
		return actionAbilityName
	case ActionEclipse:
		return actionEclipseName
	default:
		return "UNKNOWN"
	}
}
