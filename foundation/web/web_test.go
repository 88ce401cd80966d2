package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/petition/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type payload struct {
	Name string `json:"name"`
}

func (p payload) Validate() error {
	if p.Name == "" {
		return web.NewShutdownError("name missing")
	}
	return nil
}

func Test_App(t *testing.T) {
	t.Log("Given the need to route requests through the app.")
	{
		shutdown := make(chan os.Signal, 1)

		var order []string
		mw := func(name string) web.Middleware {
			return func(handler web.Handler) web.Handler {
				return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
					order = append(order, name)
					return handler(ctx, w, r)
				}
			}
		}

		app := web.NewApp(shutdown, mw("app"))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v, err := web.GetValues(ctx)
			if err != nil || v.TraceID == "" {
				t.Fatalf("\t%s\tShould get a trace id in the context: %v", failed, err)
			}

			resp := struct {
				ID string `json:"id"`
			}{
				ID: web.Param(r, "id"),
			}
			return web.Respond(ctx, w, resp, http.StatusOK)
		}
		app.Handle(http.MethodGet, "v1", "/petitions/:id", h, mw("route"))

		d := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var p payload
			return web.Decode(r, &p)
		}
		app.Handle(http.MethodPost, "v1", "/decode", d)

		r := httptest.NewRequest(http.MethodGet, "/v1/petitions/rhino-save", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":"rhino-save"`) {
			t.Fatalf("\t%s\tShould route with the parameter: %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould route with the parameter.", success)

		if len(order) != 2 || order[0] != "app" || order[1] != "route" {
			t.Fatalf("\t%s\tShould run app middleware first: %v", failed, order)
		}
		t.Logf("\t%s\tShould run app middleware first.", success)

		r = httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(`{"name":""}`))
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal shutdown on a shutdown error.", success)
		default:
			t.Fatalf("\t%s\tShould signal shutdown on a shutdown error.", failed)
		}
	}
}
