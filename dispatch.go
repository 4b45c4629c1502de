package typedapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/typedapi/typedapi/pkg/binder"
	"github.com/typedapi/typedapi/pkg/di"
	"github.com/typedapi/typedapi/pkg/logger"
	"github.com/typedapi/typedapi/pkg/session"
	"github.com/typedapi/typedapi/pkg/tasks"
	"github.com/typedapi/typedapi/pkg/validator"
)

// buildDispatcher compiles one route into an http.HandlerFunc running the
// extract, validate, invoke, convert, emit pipeline. Each stage
// short-circuits to the app's error handler.
func buildDispatcher[Req, Resp any](a *App, ri *routeInfo, plan argPlan, h Handler[Req, Resp]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				a.log.ErrorContext(r.Context(), "Handler panicked",
					logger.Route(ri.pattern),
					"panic", rec,
					"stack", string(buf[:n]),
				)
				a.errors(w, r, fmt.Errorf("handler panic: %v", rec))
			}
		}()

		ctx := r.Context()
		if ri.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, ri.timeout)
			defer cancel()
			r = r.WithContext(ctx)
		}

		var req Req
		for _, bind := range plan.binders {
			if err := bind(r, &req); err != nil {
				if errors.Is(err, binder.ErrBinderNotApplicable) {
					continue
				}
				a.errors(w, r, err)
				return
			}
		}

		if err := injectFields(&req, r, plan.injects); err != nil {
			a.errors(w, r, err)
			return
		}

		if err := validator.Struct(&req); err != nil {
			a.errors(w, r, err)
			return
		}

		resp, err := invoke(ctx, h, &req, ri.timeout > 0)
		if err != nil {
			a.errors(w, r, err)
			return
		}

		a.emit(w, r, ri, resp)
	}
}

// invoke calls the handler, racing it against the deadline when the route
// carries a timeout so a stalled handler cannot hold the connection past
// its budget.
func invoke[Req, Resp any](ctx context.Context, h Handler[Req, Resp], req *Req, bounded bool) (*Resp, error) {
	if !bounded {
		return h(ctx, req)
	}

	type result struct {
		resp *Resp
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("handler panic: %v", rec)}
			}
		}()
		resp, err := h(ctx, req)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, context.DeadlineExceeded
	case res := <-done:
		return res.resp, res.err
	}
}

// injectFields fills framework-typed and dep-tagged fields after binding.
func injectFields(req any, r *http.Request, injects []injectEntry) error {
	if len(injects) == 0 {
		return nil
	}
	rv := reflect.ValueOf(req).Elem()
	for _, inj := range injects {
		fv := rv.FieldByIndex(inj.index)
		switch inj.kind {
		case injectRequest:
			fv.Set(reflect.ValueOf(r))
		case injectSession:
			if s := session.FromRequest(r); s != nil {
				fv.Set(reflect.ValueOf(s))
			}
		case injectTasks:
			if q := tasks.FromRequest(r); q != nil {
				fv.Set(reflect.ValueOf(q))
			}
		case injectDep:
			rc := di.FromRequest(r)
			if rc == nil {
				return fmt.Errorf("no resolution context on request")
			}
			v, err := rc.Resolve(inj.typ)
			if err != nil {
				return err
			}
			fv.Set(reflect.ValueOf(v))
		}
	}
	return nil
}

// emit converts the handler's return value into the response per the
// route's declared status and response class.
func (a *App) emit(w http.ResponseWriter, r *http.Request, ri *routeInfo, resp any) {
	resp = unwrapInterface(resp)

	if setter, ok := resp.(HeaderSetter); ok {
		setter.SetHeaders(w.Header())
	}
	if setter, ok := resp.(CookieSetter); ok {
		for _, c := range setter.SetCookies() {
			http.SetCookie(w, c)
		}
	}

	status := ri.status
	if coder, ok := resp.(StatusCoder); ok {
		status = coder.StatusCode()
	}

	if isNilResponse(resp) {
		if ri.respType == voidType {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if rendered, ok := resp.(Response); ok {
		if err := rendered.Render(w, r); err != nil {
			// Headers may already be out; log instead of rewriting.
			a.log.ErrorContext(r.Context(), "Response render failed",
				logger.Route(ri.pattern), logger.Error(err))
		}
		return
	}

	if err := JSON(resp, status).Render(w, r); err != nil {
		a.log.ErrorContext(r.Context(), "Response encoding failed",
			logger.Route(ri.pattern), logger.Error(err))
	}
}

// unwrapInterface flattens a *Resp where Resp is itself an interface, so
// handlers declared over Response see their concrete value inspected.
func unwrapInterface(resp any) any {
	rv := reflect.ValueOf(resp)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Interface {
		inner := rv.Elem()
		if inner.IsNil() {
			return nil
		}
		return inner.Interface()
	}
	return resp
}

// isNilResponse reports whether the handler produced no body: a nil
// pointer or a Void value.
func isNilResponse(resp any) bool {
	if resp == nil {
		return true
	}
	rv := reflect.ValueOf(resp)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	return rv.Type() == voidType
}
