package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

// SessionEndpoint は1接続の読み書きループとライフサイクルを束ねます。
// 受信したエンベロープはGatewayに引き渡し、Gateway側からはMemberとして書き込まれます。
type SessionEndpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session    *Session
	connection *Connection
	gateway    Gateway
	profile    Profile

	idleTimeout time.Duration

	ctrlCh  chan endpointEvent // 制御用チャネル
	writeCh chan []byte        // 書き込み用チャネル

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, gateway Gateway, profile Profile, idleTimeout time.Duration) (*SessionEndpoint, error) {
	if session == nil {
		return nil, ErrInitializationFailed
	}
	if connection == nil {
		return nil, ErrInitializationFailed
	}
	if gateway == nil {
		return nil, ErrInitializationFailed
	}
	ctx, cancel := context.WithCancel(context.Background())
	se := &SessionEndpoint{
		ctx:         ctx,
		cancel:      cancel,
		session:     session,
		connection:  connection,
		gateway:     gateway,
		profile:     profile,
		idleTimeout: idleTimeout,
		ctrlCh:      make(chan endpointEvent, 16),
		writeCh:     make(chan []byte, 1024),
	}
	return se, nil
}

func (se *SessionEndpoint) SessionID() SessionID {
	return se.session.ID()
}

func (se *SessionEndpoint) Profile() Profile {
	return se.profile
}

func (se *SessionEndpoint) Run() error {
	eg, ctx := errgroup.WithContext(se.ctx)
	eg.Go(func() error {
		se.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		se.writeLoop(ctx)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	return nil
}

// Send は送信データをwriteChに積みます。満杯なら破棄してErrBackpressureを返します。
func (se *SessionEndpoint) Send(data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) Close(ctx context.Context) {
	se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, err: nil})
}

func (se *SessionEndpoint) ForceClose() {
	se.close()
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続の管理を行います。
func (se *SessionEndpoint) ownerLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-se.ctrlCh:
			se.handleControlEvent(ctx, ev)
		case <-ticker.C:
			ok, reason := se.session.IsIdle(se.idleTimeout)
			if ok {
				se.handleControlEvent(ctx, endpointEvent{
					kind: evClose,
					err:  errors.New(reason.String()),
				})
			}
		}
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			data, err := se.connection.Read(ctx)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
				se.sendCtrlEvent(ctx, endpointEvent{kind: evClose, err: err})
				return
			}
			se.session.TouchRead()
			se.handleData(ctx, data)
		}
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-se.writeCh:
			err := se.connection.Write(ctx, data)
			if err != nil {
				se.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				continue
			}
			se.session.TouchWrite()
		}
	}
}

func (se *SessionEndpoint) close() {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	se.cancel()
	// 切断時は待機列とマッチメンバーシップも掃除する
	se.gateway.Disconnect(context.Background(), se.session.ID())
	se.session.Close()
	se.connection.Close()
}

func (se *SessionEndpoint) handleData(ctx context.Context, data []byte) {
	msg, err := ParseClientMessage(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse client message", "sessionID", se.session.ID(), "err", err)
		return
	}

	switch msg.Type {
	case MessageTypeQueue1v1:
		se.enqueue(ctx, Mode1v1)
	case MessageTypeQueue2v2:
		se.enqueue(ctx, Mode2v2)
	case MessageTypeAction:
		se.gateway.SubmitAction(ctx, se.session.ID(), msg.Action)
	default:
		slog.WarnContext(ctx, "unknown message type", "sessionID", se.session.ID(), "type", msg.Type)
	}
}

func (se *SessionEndpoint) enqueue(ctx context.Context, mode Mode) {
	if err := se.gateway.EnqueueMatch(ctx, mode, se.profile, se); err != nil {
		slog.WarnContext(ctx, "enqueue rejected", "sessionID", se.session.ID(), "mode", mode, "err", err)
		if err := se.Send(EncodeError(err.Error())); err != nil {
			slog.WarnContext(ctx, "failed to send error message", "sessionID", se.session.ID(), "err", err)
		}
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (se *SessionEndpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		se.close()
	case evReadError:
		return
	case evWriteError:
		return
	default:
		slog.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (se *SessionEndpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case se.ctrlCh <- ev:
	case <-ctx.Done():
	}
}

var _ Member = (*SessionEndpoint)(nil)
