package application

import (
	"sync"
	"time"

	"eclipse/server/domain"
)

// MatchID は1マッチ（=配信ルーム）を識別するIDです。
type MatchID string

func (id MatchID) String() string { return string(id) }

// Pickup はマップ上のアイテムです。現状は常に空で、拡張用に予約されています。
type Pickup struct {
	ID string `json:"id"`
}

// Snapshot はマッチの全状態です。差分ではなく常に全量を配信します。
type Snapshot struct {
	RoomID        string   `json:"room_id"`
	Players       []Player `json:"players"`
	Map           ArenaMap `json:"map"`
	ActivePickups []Pickup `json:"active_pickups"`
	Finished      bool     `json:"finished"`
	WinningTeam   *int     `json:"winning_team"`
}

// Match は1マッチのステートマシンです。状態は Active → Finished の一方向で、
// Finished後のアクションは全て無視されます。
// プレイヤー列は参加順で固定され、勝敗判定の走査順もこれに従います。
type Match struct {
	id MatchID

	mu       sync.Mutex
	players  []Player // 参加順
	index    map[domain.SessionID]int
	arena    ArenaMap
	pickups  []Pickup
	finished bool
	winTeam  int
	endedAt  time.Time

	// notify はロック保持中に呼ばれます。state_updateの因果順を守るためです。
	notify func(Snapshot)
}

func NewMatch(id MatchID, players []Player, arena ArenaMap, notify func(Snapshot)) *Match {
	index := make(map[domain.SessionID]int, len(players))
	for i, p := range players {
		index[p.SessionID] = i
	}
	if notify == nil {
		notify = func(Snapshot) {}
	}
	return &Match{
		id:      id,
		players: players,
		index:   index,
		arena:   arena,
		pickups: make([]Pickup, 0),
		notify:  notify,
	}
}

func (m *Match) ID() MatchID { return m.id }

// ApplyAction は1アクションをマッチに適用し、処理したら全状態を通知します。
// 終了済み・非メンバー・不明アクションは通知なしの無害なno-opです。
// メーター不足のECLIPSEは状態を変えませんが、通知はします。
func (m *Match) ApplyAction(id domain.SessionID, kind ActionKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished {
		return
	}
	actor, ok := m.index[id]
	if !ok {
		return
	}
	if kind == ActionUnknown {
		return
	}

	m.players = ResolveAction(m.players, actor, kind)

	// 参加順で走査し、最初にHP0を見つけた時点で終了。
	// 勝利チームは倒れた側ではなく行動者のチームになる。
	for i := range m.players {
		if m.players[i].HP <= 0 {
			m.finished = true
			m.winTeam = m.players[actor].Team
			m.endedAt = time.Now()
			break
		}
	}

	m.notify(m.snapshotLocked())
}

// Snapshot は現在の全状態のコピーを返します。
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// SessionIDs は参加順のメンバー一覧を返します。
func (m *Match) SessionIDs() []domain.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]domain.SessionID, 0, len(m.players))
	for _, p := range m.players {
		ids = append(ids, p.SessionID)
	}
	return ids
}

// Finished は終了フラグと終了時刻を返します。
func (m *Match) Finished() (bool, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished, m.endedAt
}

func (m *Match) snapshotLocked() Snapshot {
	players := make([]Player, len(m.players))
	copy(players, m.players)
	pickups := make([]Pickup, len(m.pickups))
	copy(pickups, m.pickups)
	snap := Snapshot{
		RoomID:        string(m.id),
		Players:       players,
		Map:           m.arena,
		ActivePickups: pickups,
		Finished:      m.finished,
	}
	if m.finished {
		team := m.winTeam
		snap.WinningTeam = &team
	}
	return snap
}
