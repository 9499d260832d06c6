package server

import (
	"net/http"
	"time"

	"eclipse/server/auth"
	"eclipse/server/domain"
	"eclipse/server/handler"
)

func Route(resolver auth.Resolver, gateway domain.Gateway, idleTimeout time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewAcceptHandler(resolver, gateway, idleTimeout))
	mux.Handle("/healthz", handler.NewHealthHandler())
	return mux
}
