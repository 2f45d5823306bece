package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/contentledger/notary/app/services/viewer/handlers"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Viewer(t *testing.T) {
	t.Log("Given the need to serve the ledger event viewer.")
	{
		app, err := handlers.UIMux("test", make(chan os.Signal, 1), zap.NewNop().Sugar(), "http://localhost:8080")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the viewer: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the viewer.", success)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 for the index page: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a 200 for the index page.", success)

		if !strings.Contains(w.Body.String(), "ws://localhost:8080/v1/events") {
			t.Fatalf("\t%s\tShould point the page at the node events websocket.", failed)
		}
		t.Logf("\t%s\tShould point the page at the node events websocket.", success)

		r = httptest.NewRequest(http.MethodGet, "/assets/viewer.js", nil)
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "WebSocket") {
			t.Fatalf("\t%s\tShould serve the embedded script: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould serve the embedded script.", success)
	}

	t.Log("Given the need to reject a bad node host.")
	{
		if _, err := handlers.UIMux("test", make(chan os.Signal, 1), zap.NewNop().Sugar(), "localhost"); err == nil {
			t.Fatalf("\t%s\tShould fail to construct the viewer without a scheme.", failed)
		}
		t.Logf("\t%s\tShould fail to construct the viewer without a scheme.", success)
	}
}
