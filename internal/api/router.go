package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/guyr22/web-dev-final-project/internal/ai"
	"github.com/guyr22/web-dev-final-project/internal/auth"
	"github.com/guyr22/web-dev-final-project/internal/blob"
	"github.com/guyr22/web-dev-final-project/internal/google"
	"github.com/guyr22/web-dev-final-project/internal/ws"
)

const maxRequestBodyBytes = 16 << 20

// Deps collects everything the HTTP surface needs. Stores arrive as
// interfaces so tests can swap in fakes.
type Deps struct {
	Users    UserStore
	Posts    PostStore
	Store    Pinger
	Tokens   *auth.TokenService
	Verifier google.Verifier
	Blobs    *blob.Service
	Tagger   ai.Tagger
	Hub      *ws.Hub
}

type Server struct {
	router chi.Router
}

func NewServer(deps Deps) *Server {
	authHandler := NewAuthHandler(deps.Users, deps.Tokens, deps.Verifier)
	postsHandler := NewPostsHandler(deps.Posts, deps.Blobs, deps.Tagger, deps.Hub)
	usersHandler := NewUsersHandler(deps.Users, deps.Blobs, deps.Hub)
	mediaHandler := NewMediaHandler(deps.Blobs)
	healthHandler := NewHealthHandler(deps.Store)
	wsHandler := NewWebsocketHandler(deps.Hub, deps.Tokens)
	guard := NewAuthMiddleware(deps.Tokens)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(corsHeaders)
	r.Use(limitRequestBody(maxRequestBodyBytes))
	r.Use(httprate.LimitByIP(100, time.Minute))

	r.Get("/health", healthHandler.Check)
	r.Get("/swagger", serveSwaggerUI)
	r.Get("/swagger/openapi.yaml", serveOpenAPISpec)
	r.Get("/media/{kind}/{file}", mediaHandler.Serve)
	r.Get("/ws", wsHandler.Connect)

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(20, time.Minute))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.GoogleLogin)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuth)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postsHandler.List)
			r.Post("/", postsHandler.Create)
			r.Get("/{id}", postsHandler.Get)
			r.Put("/{id}", postsHandler.Update)
			r.Delete("/{id}", postsHandler.Delete)
			r.Post("/{id}/like", postsHandler.Like)
			r.Post("/{id}/comments", postsHandler.AddComment)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", usersHandler.GetMe)
			r.Put("/me", usersHandler.UpdateMe)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"bytes", wrapped.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
