package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/contextutil"
	"github.com/fatali-fataliyev/expense_manager/internal/metrics"
	"github.com/fatali-fataliyev/expense_manager/logging"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const (
	TraceHeader = "X-Trace-ID"

	limiterIdleTTL = 10 * time.Minute
)

// paths the guard sends callers to
var guardRedirects = map[string]string{
	auth.RouteLogin:     "/api/login",
	auth.RouteDashboard: "/api/dashboard",
}

// CORS answers cross-origin requests only for the listed origins. An empty list allows none,
// unlike cors.Options where it means every origin.
func CORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", TraceHeader},
		ExposedHeaders:   []string{"Content-Disposition", TraceHeader},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// route wraps h with tracing, metrics, the access guard and, for login and register,
// the per-client rate limit.
func (api *Api) route(routeID string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := contextutil.WithTraceID(r.Context(), r.Header.Get(TraceHeader))
		r = r.WithContext(ctx)
		traceID := contextutil.TraceIDFromContext(ctx)
		w.Header().Set(TraceHeader, traceID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.HTTPRequests.WithLabelValues(routeID, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPDuration.WithLabelValues(routeID).Observe(time.Since(start).Seconds())
			logging.Logger.Debugf("[TraceID=%s] | %s %s -> %d (%s)", traceID, r.Method, r.URL.Path, rec.status, time.Since(start))
		}()

		_, authenticated := api.Auth.Current(ctx)
		decision := auth.Guard(routeID, authenticated)
		if !decision.Allow {
			api.redirect(rec, r, decision)
			return
		}

		if routeID == auth.RouteLogin || routeID == auth.RouteRegister {
			if !api.limiter.Allow(clientAddress(r)) {
				logging.Logger.Warnf("[TraceID=%s] | rate limit hit on %s from %s", traceID, routeID, clientAddress(r))
				writeJSON(rec, 429, appErrors.ErrorResponse{
					Code:    appErrors.ErrTooMany,
					Message: "Too many attempts, try again later.",
				})
				return
			}
		}

		h.ServeHTTP(rec, r)
	})
}

// redirect answers an anonymous caller with 401 and the login route, and sends an
// authenticated caller of a login-only route to the dashboard.
func (api *Api) redirect(w http.ResponseWriter, r *http.Request, decision auth.Decision) {
	if decision.RedirectTo == auth.RouteLogin {
		writeJSON(w, 401, GuardResponse{
			Code:     appErrors.ErrAuth,
			Message:  "Please login to continue.",
			Redirect: decision.RedirectTo,
		})
		return
	}
	http.Redirect(w, r, guardRedirects[decision.RedirectTo], http.StatusSeeOther)
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (c *clientLimiter) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > time.Minute {
		for k, entry := range c.clients {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}

	entry, ok := c.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}
