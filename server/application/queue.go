package application

import (
	"errors"
	"sync"

	"eclipse/server/domain"
)

var (
	// ErrAlreadyQueued は重複ガード有効時に同じプロフィールが再エンキューされた場合のエラーです。
	ErrAlreadyQueued = errors.New("queue: profile already waiting")
)

// QueueEntry は待機列の1エントリです。到着順に並びます。
type QueueEntry struct {
	Profile domain.Profile
	Member  domain.Member
}

// Queue は1モード分のFIFO待機列です。
// Enqueueは追加と閾値チェックと先頭からのN件取り出しを1つのロックの下で行い、
// 同じエントリが2つのマッチに入らないことを保証します。
type Queue struct {
	mu      sync.Mutex
	size    int // マッチ成立人数
	dedupe  bool
	entries []QueueEntry
}

func NewQueue(size int, dedupe bool) *Queue {
	return &Queue{size: size, dedupe: dedupe}
}

// Enqueue はエントリを末尾に追加します。人数が揃ったら先頭からちょうど
// size件を取り出して返します。揃わなければnilを返します。
func (q *Queue) Enqueue(e QueueEntry) ([]QueueEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.dedupe {
		for _, waiting := range q.entries {
			if waiting.Profile.ID == e.Profile.ID {
				return nil, ErrAlreadyQueued
			}
		}
	}

	q.entries = append(q.entries, e)
	if len(q.entries) < q.size {
		return nil, nil
	}

	batch := make([]QueueEntry, q.size)
	copy(batch, q.entries[:q.size])
	q.entries = append(q.entries[:0], q.entries[q.size:]...)
	return batch, nil
}

// Remove は指定接続のエントリを全て取り除きます。1つでも消せたらtrueを返します。
func (q *Queue) Remove(id domain.SessionID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.entries[:0]
	removed := false
	for _, e := range q.entries {
		if e.Member.SessionID() == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	q.entries = kept
	return removed
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
