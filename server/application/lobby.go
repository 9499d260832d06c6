package application

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"eclipse/server/domain"
)

var (
	// ErrUnknownMode は未知のマッチメイキングモードを指定した場合のエラーです。
	ErrUnknownMode = errors.New("lobby: unknown matchmaking mode")
)

const (
	defaultFinishedMatchTTL = time.Minute
	defaultReapInterval     = 30 * time.Second
)

// LobbyConfig はLobbyの動作パラメータです。ゼロ値には既定値が入ります。
type LobbyConfig struct {
	// FinishedMatchTTL は終了したマッチを回収するまでの猶予です。
	FinishedMatchTTL time.Duration
	// ReapInterval は回収ループの周期です。
	ReapInterval time.Duration
	// QueueDedupe は同一プロフィールの重複エンキューを拒否します。
	// 既定はオフで、元の挙動（重複許容）を保ちます。
	QueueDedupe bool
	// Rand はチームシャッフルとマップ生成に使う乱数源です。テストで注入します。
	Rand *rand.Rand
}

// Lobby はモード別の待機列・マッチレジストリ・配信メンバーシップを所有します。
// SessionEndpointからはGatewayとして見えます。
// ロックはレジストリ用・待機列用・マッチ用を分離し、別マッチのアクションは
// 完全に並行して進みます。
type Lobby struct {
	catalog Catalog
	fanout  *Fanout
	queues  map[domain.Mode]*Queue

	mu         sync.RWMutex
	matches    map[MatchID]*Match
	membership map[domain.SessionID]MatchID

	rngMu sync.Mutex
	rng   *rand.Rand

	finishedTTL  time.Duration
	reapInterval time.Duration
}

func NewLobby(catalog Catalog, cfg LobbyConfig) *Lobby {
	if cfg.FinishedMatchTTL <= 0 {
		cfg.FinishedMatchTTL = defaultFinishedMatchTTL
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = defaultReapInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Lobby{
		catalog: catalog,
		fanout:  NewFanout(),
		queues: map[domain.Mode]*Queue{
			domain.Mode1v1: NewQueue(domain.Mode1v1.PartySize(), cfg.QueueDedupe),
			domain.Mode2v2: NewQueue(domain.Mode2v2.PartySize(), cfg.QueueDedupe),
		},
		matches:      make(map[MatchID]*Match),
		membership:   make(map[domain.SessionID]MatchID),
		rng:          cfg.Rand,
		finishedTTL:  cfg.FinishedMatchTTL,
		reapInterval: cfg.ReapInterval,
	}
}

// EnqueueMatch はプレイヤーを待機列に追加し、人数が揃えばマッチを開始します。
func (l *Lobby) EnqueueMatch(ctx context.Context, mode domain.Mode, profile domain.Profile, member domain.Member) error {
	q, ok := l.queues[mode]
	if !ok {
		return ErrUnknownMode
	}

	batch, err := q.Enqueue(QueueEntry{Profile: profile, Member: member})
	if err != nil {
		return err
	}

	if err := member.Send(domain.EncodeQueued(mode)); err != nil {
		slog.WarnContext(ctx, "failed to send queued ack", "sessionID", member.SessionID(), "err", err)
	}

	if batch != nil {
		l.startMatch(ctx, mode, batch)
	}
	return nil
}

// SubmitAction は接続が所属するマッチにアクションを適用します。
func (l *Lobby) SubmitAction(ctx context.Context, id domain.SessionID, action string) {
	l.mu.RLock()
	matchID, ok := l.membership[id]
	match := l.matches[matchID]
	l.mu.RUnlock()
	if !ok || match == nil {
		slog.DebugContext(ctx, "action from session without match", "sessionID", id)
		return
	}
	match.ApplyAction(id, ParseActionKind(action))
}

// Disconnect は接続を全ての待機列とマッチメンバーシップから取り除きます。
func (l *Lobby) Disconnect(ctx context.Context, id domain.SessionID) {
	for _, q := range l.queues {
		q.Remove(id)
	}

	l.mu.Lock()
	matchID, ok := l.membership[id]
	if ok {
		delete(l.membership, id)
	}
	l.mu.Unlock()

	if ok {
		l.fanout.Leave(matchID, id)
		slog.DebugContext(ctx, "session left match", "sessionID", id, "matchID", matchID)
	}
}

// Run は回収ループを回します。ctxのキャンセルで停止します。
func (l *Lobby) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Reap(ctx, time.Now())
		}
	}
}

// Reap は終了から猶予を過ぎたマッチと、メンバーのいないマッチを回収します。
func (l *Lobby) Reap(ctx context.Context, now time.Time) {
	l.mu.Lock()
	victims := make([]*Match, 0)
	for id, m := range l.matches {
		finished, endedAt := m.Finished()
		expired := finished && now.Sub(endedAt) >= l.finishedTTL
		abandoned := l.fanout.Count(id) == 0
		if !expired && !abandoned {
			continue
		}
		delete(l.matches, id)
		for _, sid := range m.SessionIDs() {
			if l.membership[sid] == id {
				delete(l.membership, sid)
			}
		}
		victims = append(victims, m)
	}
	l.mu.Unlock()

	for _, m := range victims {
		l.fanout.Drop(m.ID())
		slog.InfoContext(ctx, "match reaped", "matchID", m.ID())
	}
}

// MatchCount は登録中のマッチ数を返します。
func (l *Lobby) MatchCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.matches)
}

// MatchOf は接続が所属するマッチを返します。
func (l *Lobby) MatchOf(id domain.SessionID) (*Match, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	matchID, ok := l.membership[id]
	if !ok {
		return nil, false
	}
	m, ok := l.matches[matchID]
	return m, ok
}

func (l *Lobby) startMatch(ctx context.Context, mode domain.Mode, batch []QueueEntry) {
	l.rngMu.Lock()
	teams := assignTeams(l.rng, mode, len(batch))
	arena := GenerateArena(l.rng)
	l.rngMu.Unlock()

	players := make([]Player, 0, len(batch))
	for i, e := range batch {
		players = append(players, BuildPlayer(l.catalog, e.Member.SessionID(), e.Profile, teams[i]))
	}

	id := MatchID(uuid.NewString())
	match := NewMatch(id, players, arena, func(snap Snapshot) {
		data, err := domain.EncodeStateUpdate(snap)
		if err != nil {
			slog.Error("failed to encode state update", "matchID", id, "err", err)
			return
		}
		l.fanout.Broadcast(id, data)
	})

	// レジストリ登録より先に配信メンバーを揃える。逆順だと回収ループが
	// 生まれたてのマッチをメンバー0の放棄マッチと誤認して消してしまう。
	for _, e := range batch {
		l.fanout.Join(id, e.Member)
	}

	stale := make(map[domain.SessionID]MatchID)
	l.mu.Lock()
	l.matches[id] = match
	for _, e := range batch {
		sid := e.Member.SessionID()
		if prev, ok := l.membership[sid]; ok && prev != id {
			stale[sid] = prev
		}
		l.membership[sid] = id
	}
	l.mu.Unlock()

	// 前のマッチの配信リストから抜く。残すと旧マッチが配信を続け、
	// 放棄判定も永遠に成立しない。
	for sid, prev := range stale {
		l.fanout.Leave(prev, sid)
	}

	data, err := domain.EncodeMatchStart(match.Snapshot())
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode match start", "matchID", id, "err", err)
		return
	}
	l.fanout.Broadcast(id, data)
	slog.InfoContext(ctx, "match started", "matchID", id, "mode", mode, "players", len(players))
}

// assignTeams はモードに応じてチーム番号を割り当てます。
// 2v2は2-2の構成を保ったまま4枠にランダムに並べ替えます。
func assignTeams(rng *rand.Rand, mode domain.Mode, n int) []int {
	if mode == domain.Mode2v2 && n == 4 {
		teams := []int{1, 1, 2, 2}
		rng.Shuffle(len(teams), func(i, j int) {
			teams[i], teams[j] = teams[j], teams[i]
		})
		return teams
	}
	teams := make([]int, n)
	for i := range teams {
		teams[i] = i + 1
	}
	return teams
}

var _ domain.Gateway = (*Lobby)(nil)
