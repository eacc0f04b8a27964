package telegram

import "github.com/m3rciful/gatekeeper/core/telegram/middleware"

// DefaultMiddlewares builds the shared middleware chain for bots.
// Recover must stay first. The reply counter must wrap the context before
// any handler sends.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "replies", Use: middleware.ReplyMetricsMiddleware},
	}
}
