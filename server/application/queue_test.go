package application

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"eclipse/server/domain"
)

type fakeMember struct {
	id domain.SessionID

	mu   sync.Mutex
	sent [][]byte
}

func newFakeMember(id string) *fakeMember {
	return &fakeMember{id: domain.SessionID(id)}
}

func (f *fakeMember) SessionID() domain.SessionID { return f.id }

func (f *fakeMember) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeMember) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func entry(id string) QueueEntry {
	return QueueEntry{
		Profile: domain.Profile{ID: "user-" + id, Username: id},
		Member:  newFakeMember(id),
	}
}

func TestQueuePopsExactlyThresholdInArrivalOrder(t *testing.T) {
	q := NewQueue(2, false)

	batch, err := q.Enqueue(entry("a"))
	if err != nil || batch != nil {
		t.Fatalf("first enqueue: batch=%v err=%v", batch, err)
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}

	batch, err = q.Enqueue(entry("b"))
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
	if batch[0].Profile.ID != "user-a" || batch[1].Profile.ID != "user-b" {
		t.Errorf("batch out of arrival order: %v, %v", batch[0].Profile.ID, batch[1].Profile.ID)
	}
	if q.Len() != 0 {
		t.Errorf("len = %d after pop, want 0", q.Len())
	}
}

// 重複ガードは既定では無効で、同じプロフィールを2回並べられます。
func TestQueueAllowsDuplicatesByDefault(t *testing.T) {
	q := NewQueue(2, false)

	if _, err := q.Enqueue(entry("a")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	dup := QueueEntry{Profile: domain.Profile{ID: "user-a"}, Member: newFakeMember("a2")}
	batch, err := q.Enqueue(dup)
	if err != nil {
		t.Fatalf("duplicate enqueue rejected without dedupe: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch size = %d, want 2", len(batch))
	}
}

func TestQueueDedupeRejectsWaitingProfile(t *testing.T) {
	q := NewQueue(2, true)

	if _, err := q.Enqueue(entry("a")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	_, err := q.Enqueue(QueueEntry{Profile: domain.Profile{ID: "user-a"}, Member: newFakeMember("a2")})
	if !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("err = %v, want ErrAlreadyQueued", err)
	}
	if q.Len() != 1 {
		t.Errorf("len = %d, want 1", q.Len())
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue(4, false)
	for _, id := range []string{"a", "b", "c"} {
		if batch, err := q.Enqueue(entry(id)); err != nil || batch != nil {
			t.Fatalf("enqueue %s: batch=%v err=%v", id, batch, err)
		}
	}

	if !q.Remove("b") {
		t.Fatalf("remove returned false")
	}
	if q.Remove("b") {
		t.Fatalf("second remove returned true")
	}
	if q.Len() != 2 {
		t.Errorf("len = %d, want 2", q.Len())
	}
}

// 並行エンキューでも各エントリはちょうど1つのバッチにだけ入ります。
func TestQueueConcurrentEnqueue(t *testing.T) {
	const total = 100
	q := NewQueue(2, false)

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := range total {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batch, err := q.Enqueue(entry(fmt.Sprintf("p%03d", i)))
			if err != nil {
				t.Errorf("enqueue: %v", err)
				return
			}
			if batch == nil {
				return
			}
			mu.Lock()
			for _, e := range batch {
				seen[e.Profile.ID]++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("matched %d entries, want %d", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("entry %s matched %d times", id, n)
		}
	}
	if q.Len() != 0 {
		t.Errorf("len = %d, want 0", q.Len())
	}
}
