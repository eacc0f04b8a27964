package router

import (
	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/ui"
)

// Routes assembles the command, callback, text and document routes of reg.
// Updates no route claims go to fb; a rejected admin command is answered
// like unknown text.
func Routes(reg *tg.Registry, adminID int64, fb ui.FallbackProvider) []tg.Route {
	if fb == nil {
		fb = ui.Fallbacks{}
	}
	unknownText := fb.UnknownText()

	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminID:       adminID,
		OnAdminReject: unknownText,
	})
	routes = append(routes, CallbackRoute(reg, CallbackOptions{NotFound: fb.UnknownCallback()}))
	return append(routes, TextRoutes(reg, TextOptions{
		UnknownText:     unknownText,
		UnknownDocument: fb.UnknownDocument(),
	})...)
}
