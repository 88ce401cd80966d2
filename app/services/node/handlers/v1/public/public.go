// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/petition/business/web/errs"
	"github.com/ardanlabs/petition/foundation/blockchain/state"
	"github.com/ardanlabs/petition/foundation/events"
	"github.com/ardanlabs/petition/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of petition ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This starts a ticker to send a ping message to the client.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteJSON(e); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Chain returns every block in the ledger.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Validate runs the chain and signature validation.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.ValidateAll(), http.StatusOK)
}

// RegisterUser registers the public key of a remote wallet.
func (h Handlers) RegisterUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nu NewUser
	if err := web.Decode(r, &nu); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.RegisterPublicKey(nu.Username, nu.PublicKey); err != nil {
		return errs.FromState(err)
	}

	pem, err := h.State.QueryPublicKey(nu.Username)
	if err != nil {
		return errs.FromState(err)
	}

	usr := User{
		Username:  nu.Username,
		PublicKey: pem,
	}

	return web.Respond(ctx, w, usr, http.StatusCreated)
}

// User returns the public key registered for the username.
func (h Handlers) User(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	username := web.Param(r, "username")

	pem, err := h.State.QueryPublicKey(username)
	if err != nil {
		return errs.FromState(err)
	}

	usr := User{
		Username:  username,
		PublicKey: pem,
	}

	return web.Respond(ctx, w, usr, http.StatusOK)
}

// Activity returns the petitions created and signed by the user.
func (h Handlers) Activity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryActivity(web.Param(r, "username")), http.StatusOK)
}

// Petitions returns every petition.
func (h Handlers) Petitions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryPetitions(), http.StatusOK)
}

// Petition returns the petition for the id.
func (h Handlers) Petition(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	p, err := h.State.QueryPetition(web.Param(r, "id"))
	if err != nil {
		return errs.FromState(err)
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// CreatePetition appends a new petition to the ledger.
func (h Handlers) CreatePetition(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var np NewPetition
	if err := web.Decode(r, &np); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("create petition", "traceid", v.TraceID, "petition", np.PetitionID, "creator", np.Creator)

	block, err := h.State.CreatePetition(np.PetitionID, np.Text, np.Creator)
	if err != nil {
		return errs.FromState(err)
	}

	resp := Appended{
		Status: "petition created",
		Block:  block,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Signers returns the signatures on the petition with their verification
// status.
func (h Handlers) Signers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	signers, err := h.State.QuerySigners(web.Param(r, "id"))
	if err != nil {
		return errs.FromState(err)
	}

	return web.Respond(ctx, w, signers, http.StatusOK)
}

// SubmitSignature appends a signature produced by a remote wallet.
func (h Handlers) SubmitSignature(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ns NewSignature
	if err := web.Decode(r, &ns); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	petitionID := web.Param(r, "id")

	h.Log.Infow("sign petition", "traceid", v.TraceID, "petition", petitionID, "signer", ns.Username)

	block, err := h.State.SubmitSignature(petitionID, ns.Username, ns.Signature)
	if err != nil {
		return errs.FromState(err)
	}

	resp := Appended{
		Status: "signature recorded",
		Block:  block,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Stats returns the number of signatures per petition.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStats(), http.StatusOK)
}
