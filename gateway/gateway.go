package gateway

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"amachain/gateway/middleware"
	"amachain/gateway/routes"
)

// New builds the REST facade router pointed at the JSON-RPC node. Reads carry
// a looser rate budget than submissions.
func New(rpcURL string, logger *log.Logger) (http.Handler, error) {
	target, err := url.Parse(rpcURL)
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"questions.read":   {RequestsPerMinute: 600, Burst: 30},
		"questions.submit": {RequestsPerMinute: 120, Burst: 10},
	}, logger)

	question := routes.NewQuestionRoutes(target, 10*time.Second)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware("questions.read"))
		question.MountReads(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware("questions.submit"))
		question.MountWrites(r)
	})
	return r, nil
}
