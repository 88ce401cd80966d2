// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/petition/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/petition/foundation/blockchain/state"
	"github.com/ardanlabs/petition/foundation/events"
	"github.com/ardanlabs/petition/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/chain", pbl.Chain)
	app.Handle(http.MethodGet, version, "/chain/validate", pbl.Validate)
	app.Handle(http.MethodPost, version, "/users", pbl.RegisterUser)
	app.Handle(http.MethodGet, version, "/users/:username", pbl.User)
	app.Handle(http.MethodGet, version, "/users/:username/activity", pbl.Activity)
	app.Handle(http.MethodGet, version, "/petitions", pbl.Petitions)
	app.Handle(http.MethodPost, version, "/petitions", pbl.CreatePetition)
	app.Handle(http.MethodGet, version, "/petitions/:id", pbl.Petition)
	app.Handle(http.MethodGet, version, "/petitions/:id/signers", pbl.Signers)
	app.Handle(http.MethodPost, version, "/petitions/:id/signatures", pbl.SubmitSignature)
	app.Handle(http.MethodGet, version, "/stats", pbl.Stats)
}
