package accounts

import (
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SessionGuard owns the session cookie and the protected-route middleware.
type SessionGuard struct {
	client           IdentityClient
	accessor         *SessionAccessor
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

// NewSessionGuard returns a new SessionGuard
func NewSessionGuard(client IdentityClient, cfg Config) (*SessionGuard, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetSessionCookieDuration() > 0 {
		cookieDuration = time.Duration(cfg.GetSessionCookieDuration()) * time.Hour
	}

	g := &SessionGuard{
		client:         client,
		accessor:       NewSessionAccessor(client, cfg),
		cfg:            cfg,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler
	g.AuthErrorHandler = g.defaultAuthErrHandler

	return g, nil
}

func (g *SessionGuard) Accessor() *SessionAccessor {
	return g.accessor
}

func (g SessionGuard) GetCookieDuration() time.Duration {
	return g.cookieDuration
}

// Establish binds the backend session to the client via the session cookie.
func (g *SessionGuard) Establish(ctx router.Context, session *Session) {
	if session == nil || session.AccessToken == "" {
		return
	}

	duration := g.cookieDuration
	if session.ExpiresAt != nil {
		if until := time.Until(*session.ExpiresAt); until > 0 {
			duration = until
		}
	}

	g.setCookieToken(ctx, session.AccessToken, duration)
}

// Logout invalidates the current session unconditionally. Revocation
// failures are logged, never surfaced: signing out twice is not an error.
func (g *SessionGuard) Logout(ctx router.Context) {
	if token := g.accessor.Token(ctx); token != "" {
		if err := g.client.SignOut(ctx.Context(), token); err != nil {
			g.Logger.Warn("session revocation failed: %v", err)
		}
	}

	g.cookieDel(ctx, g.cfg.GetSessionCookieName())
}

// ProtectedRoute resolves the acting identity once and stores it in both the
// router locals and the request context. Anonymous requests go through the
// provided error handler with ErrNotAuthenticated.
func (g *SessionGuard) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = g.AuthErrorHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			identity, err := g.accessor.CurrentIdentity(ctx)
			if err != nil {
				return g.ErrorHandler(ctx, err)
			}

			if identity == nil {
				return errorHandler(ctx, ErrNotAuthenticated)
			}

			ctx.Locals(IdentityLocalsKey, identity)
			ctx.SetContext(WithIdentity(ctx.Context(), identity))

			return next(ctx)
		}
	}
}

// MakeClientRouteAuthErrorHandler builds the handler used by HTML routes.
// With optional mode the chain continues anonymously instead of redirecting.
func (g *SessionGuard) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if optional {
			g.Logger.Info("Optional auth failed, proceeding", "error", err)
			return ctx.Next()
		}
		return g.AuthErrorHandler(ctx, err)
	}
}

func (g *SessionGuard) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute, "")
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

func (g *SessionGuard) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = g.cfg.GetRejectedRouteDefault()
	}
	g.cookieDel(ctx, rejectedRoute)
	return r
}

func (g *SessionGuard) SetRedirect(ctx router.Context) {
	rejectedRoute := g.cfg.GetRejectedRouteKey()

	g.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *SessionGuard) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     g.cfg.GetSessionCookieName(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *SessionGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *SessionGuard) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "An unexpected authentication error").
			WithCode(goerrors.CodeUnauthorized)
	}

	g.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	g.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/login", statusCode)
}

func (g *SessionGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	g.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return g.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
