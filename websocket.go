package typedapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/typedapi/typedapi/pkg/binder"
	"github.com/typedapi/typedapi/pkg/logger"
	"github.com/typedapi/typedapi/pkg/validator"
)

// WSHandler owns an upgraded WebSocket connection for its lifetime. The
// dispatcher closes the connection when the handler returns.
type WSHandler[Req any] func(ctx context.Context, req *Req, conn *websocket.Conn) error

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// WS registers a WebSocket route. Parameters bind from the upgrade request
// before the connection is accepted; binding or validation failures reject
// the upgrade with the usual error envelope.
func WS[Req any](a *App, pattern string, h WSHandler[Req], opts ...RouteOption) {
	ri := &routeInfo{
		method:        MethodWS,
		pattern:       pattern,
		status:        http.StatusSwitchingProtocols,
		responseClass: classWS,
		reqType:       typeOf[Req](),
	}
	for _, opt := range opts {
		opt(ri)
	}

	plan := planFor(ri.reqType, http.MethodGet)
	ri.handler = func(w http.ResponseWriter, r *http.Request) {
		req, ok := bindStreamRequest[Req](a, w, r, plan)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote its own error response.
			a.log.ErrorContext(r.Context(), "WebSocket upgrade failed",
				logger.Route(pattern), logger.Error(err))
			return
		}
		defer conn.Close()

		if err := h(r.Context(), req, conn); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			a.log.ErrorContext(r.Context(), "WebSocket handler failed",
				logger.Route(pattern), logger.Error(err))
		}
	}
	a.addRoute(ri)
}

// ServerSentEvents registers an SSE route. The handler streams events
// until it returns or the client disconnects.
func ServerSentEvents[Req any](a *App, pattern string, h SSEHandler[Req], opts ...RouteOption) {
	ri := &routeInfo{
		method:        MethodSSE,
		pattern:       pattern,
		status:        http.StatusOK,
		responseClass: classSSE,
		reqType:       typeOf[Req](),
	}
	for _, opt := range opts {
		opt(ri)
	}

	plan := planFor(ri.reqType, http.MethodGet)
	ri.handler = func(w http.ResponseWriter, r *http.Request) {
		req, ok := bindStreamRequest[Req](a, w, r, plan)
		if !ok {
			return
		}

		stream, err := newSSEStream(w)
		if err != nil {
			a.errors(w, r, err)
			return
		}

		if err := h(r.Context(), req, stream); err != nil && !errors.Is(err, context.Canceled) {
			a.log.ErrorContext(r.Context(), "SSE handler failed",
				logger.Route(pattern), logger.Error(err))
		}
	}
	a.addRoute(ri)
}

// bindStreamRequest runs extraction and validation for upgrade-style
// routes, writing the error response on failure.
func bindStreamRequest[Req any](a *App, w http.ResponseWriter, r *http.Request, plan argPlan) (*Req, bool) {
	var req Req
	for _, bind := range plan.binders {
		if err := bind(r, &req); err != nil {
			if errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			a.errors(w, r, err)
			return nil, false
		}
	}
	if err := injectFields(&req, r, plan.injects); err != nil {
		a.errors(w, r, err)
		return nil, false
	}
	if err := validator.Struct(&req); err != nil {
		a.errors(w, r, err)
		return nil, false
	}
	return &req, true
}
