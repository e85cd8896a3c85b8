package adapthttp

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"jobflow/internal/app"
	"jobflow/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const identityContextKey contextKey = "identity"

// responseWriter records the status code and doubles as the request's
// app.CookieSink: cookies can be set until the headers are flushed.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

var _ app.CookieSink = (*responseWriter)(nil)

func wrap(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *responseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseWriter) Writable() bool { return !w.wroteHeader }

func (w *responseWriter) SetCookie(c *http.Cookie) error {
	if w.wroteHeader {
		return app.ErrHeadersWritten
	}
	http.SetCookie(w.ResponseWriter, c)
	return nil
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func (s *Server) tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("jobflow/internal/adapter/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		rw := wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		if route := routePattern(r); route != "" {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))
		}
		span.SetAttributes(attribute.Int("http.response.status_code", rw.Status()))
		if rw.Status() >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rw.Status()))
		}
	})
}

// requestLogger attaches a request-scoped logger to the context and logs
// one line per request once it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lc := log.Logger.With().Str("request_id", middleware.GetReqID(r.Context()))
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			lc = lc.Str("trace_id", sc.TraceID().String())
		}
		logger := lc.Logger()
		ctx := logger.WithContext(r.Context())

		rw := wrap(w)
		next.ServeHTTP(rw, r.WithContext(ctx))

		l := zerolog.Ctx(ctx)
		ev := l.Info()
		if rw.Status() >= http.StatusInternalServerError {
			ev = l.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.Status()).
			Dur("duration", time.Since(start)).
			Str("ip", r.RemoteAddr).
			Msg("request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			if rw := wrap(w); rw.Writable() {
				s.writeError(rw, r, domain.Internal("http.recover", fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metrics(next http.Handler) http.Handler {
	if s.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrap(w)
		next.ServeHTTP(rw, r)
		s.Metrics.ObserveRequest(r.Method, routePattern(r), rw.Status(), time.Since(start))
	})
}

// authenticate runs the session gate for the request. On success the
// identity is stored on the request context and tagged onto the logger.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, error) {
	var value string
	if c, err := r.Cookie(s.Sessions.CookieName()); err == nil {
		value = c.Value
	}
	id, err := s.Gate.Require(r.Context(), value, wrap(w))
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("user_id", id.User.ID)
	})
	ctx := context.WithValue(r.Context(), identityContextKey, id)
	return r.WithContext(ctx), nil
}

// requireAPI rejects anonymous API calls with 401.
func (s *Server) requireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := s.authenticate(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, authed)
	})
}

// requirePage sends anonymous visitors of app pages to the login page.
func (s *Server) requirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := s.authenticate(w, r)
		switch {
		case domain.KindOf(err) == domain.KindUnauthorized:
			http.Redirect(w, r, "/login", http.StatusFound)
		case err != nil:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("page auth failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		default:
			next.ServeHTTP(w, authed)
		}
	})
}

func identityFrom(ctx context.Context) app.Identity {
	id, _ := ctx.Value(identityContextKey).(app.Identity)
	return id
}

// userID returns the authenticated user's id. Only valid behind requireAPI.
func userID(r *http.Request) string {
	return identityFrom(r.Context()).User.ID
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
