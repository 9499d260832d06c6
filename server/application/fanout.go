package application

import (
	"log/slog"
	"sync"

	"eclipse/server/domain"
)

// Fanout はマッチごとのメンバー一覧を持ち、スナップショットを全員に配ります。
// 送信はメンバーの書き込みチャネルへの非ブロッキング投入で、マッチ処理を
// 待たせません。投入順はマッチロック下で決まるため、因果順は保たれます。
type Fanout struct {
	mu      sync.RWMutex
	members map[MatchID][]domain.Member
}

func NewFanout() *Fanout {
	return &Fanout{
		members: make(map[MatchID][]domain.Member),
	}
}

func (f *Fanout) Join(id MatchID, m domain.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[id] = append(f.members[id], m)
}

func (f *Fanout) Leave(id MatchID, sessionID domain.SessionID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members, ok := f.members[id]
	if !ok {
		return
	}
	kept := members[:0]
	for _, m := range members {
		if m.SessionID() == sessionID {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		delete(f.members, id)
		return
	}
	f.members[id] = kept
}

// Broadcast は現在のメンバー全員にペイロードを配信します。
func (f *Fanout) Broadcast(id MatchID, payload []byte) {
	f.mu.RLock()
	members := make([]domain.Member, len(f.members[id]))
	copy(members, f.members[id])
	f.mu.RUnlock()

	for _, m := range members {
		if err := m.Send(payload); err != nil {
			slog.Warn("broadcast send failed, message dropped", "matchID", id, "sessionID", m.SessionID(), "err", err)
		}
	}
}

// Count は現在のメンバー数を返します。
func (f *Fanout) Count(id MatchID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.members[id])
}

// Drop はマッチのメンバー一覧ごと破棄します。
func (f *Fanout) Drop(id MatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, id)
}
