package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID は1接続を識別するIDです。
type SessionID string

func (id SessionID) String() string { return string(id) }

func (id SessionID) IsEmpty() bool { return id == "" }

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: SessionID(uuid.NewString()),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastWrite.Store(now)
	return s
}

func (s *Session) ID() SessionID {
	return s.id
}

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(time.Now().UnixNano())
}

func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.IsReadIdle(timeout) {
		reason |= IdleRead
	}
	if s.IsWriteIdle(timeout) {
		reason |= IdleWrite
	}
	return reason != IdleNone, reason
}

func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastRead.Load()), timeout)
}

func (s *Session) IsWriteIdle(timeout time.Duration) bool {
	return isIdleSince(unixNanoToTime(s.lastWrite.Load()), timeout)
}

func isIdleSince(last time.Time, timeout time.Duration) bool {
	return time.Since(last) > timeout
}

func unixNanoToTime(nano int64) time.Time {
	return time.Unix(0, nano)
}
