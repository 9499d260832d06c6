package application

const (
	lightMeterGain   = 5
	heavyMeterGain   = 10
	heavyMultiplier  = 1.5
	eclipseMultiple  = 2
	blockStaminaCost = 5
)

// ResolveAction は1アクションの戦闘ルールを純粋に評価します。
// 入力スライスは変更せず、更新後のプレイヤー列を返します。
// 攻撃系は相手チーム全員に同時に効果します（単体ターゲット選択はなし）。
func ResolveAction(players []Player, actor int, kind ActionKind) []Player {
	next := make([]Player, len(players))
	copy(next, players)
	if actor < 0 || actor >= len(next) {
		return next
	}
	p := &next[actor]

	switch kind {
	case ActionLightAttack:
		damageOpponents(next, p.Team, p.Damage)
		p.EclipseMeter = min(meterMax, p.EclipseMeter+lightMeterGain)
		p.Moving = true
	case ActionHeavyAttack:
		damageOpponents(next, p.Team, int(float64(p.Damage)*heavyMultiplier))
		p.EclipseMeter = min(meterMax, p.EclipseMeter+heavyMeterGain)
		p.Moving = true
	case ActionBlock:
		p.Blocking = true
		p.BlockStamina = max(0, p.BlockStamina-blockStaminaCost)
	case ActionAbility:
		p.Moving = true
	case ActionEclipse:
		// メーターが満タンのときだけ発動する
		if p.EclipseMeter >= meterMax {
			damageOpponents(next, p.Team, p.Damage*eclipseMultiple)
			p.EclipseMeter = 0
			p.Moving = true
		}
	}
	return next
}

func damageOpponents(players []Player, team int, damage int) {
	for i := range players {
		if players[i].Team == team {
			continue
		}
		players[i].HP = max(0, players[i].HP-damage)
	}
}
