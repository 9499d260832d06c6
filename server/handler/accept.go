package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	adapterwebsocket "eclipse/server/adapter/websocket"
	"eclipse/server/auth"
	"eclipse/server/domain"
)

// AcceptHandler はwebsocket接続を受理し、認証してSessionEndpointを起動します。
type AcceptHandler struct {
	resolver    auth.Resolver
	gateway     domain.Gateway
	idleTimeout time.Duration
}

func NewAcceptHandler(resolver auth.Resolver, gateway domain.Gateway, idleTimeout time.Duration) *AcceptHandler {
	return &AcceptHandler{resolver: resolver, gateway: gateway, idleTimeout: idleTimeout}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// 身元はアップグレード前に一度だけ解決する。以後のキュー要求が
	// 身元なしで届くことはない。
	profile, err := h.resolver.Resolve(ctx, auth.CredentialFromRequest(r))
	if err != nil {
		slog.WarnContext(ctx, "identity resolution failed", "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.gateway, profile, h.idleTimeout)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "session_id", session.ID(), "user_id", profile.ID)
	if err := endpoint.Run(); err != nil {
		slog.ErrorContext(ctx, "failed to run session endpoint", "err", err)
		return
	}
}
