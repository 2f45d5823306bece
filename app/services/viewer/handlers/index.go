package handlers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/contentledger/notary/foundation/web"
)

//go:embed assets
var assets embed.FS

type index struct {
	page []byte
}

// newIndex renders the index page once since nothing on it changes per
// request.
func newIndex(build string, nodeHost string) (*index, error) {
	u, err := url.Parse(nodeHost)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid node host %q", nodeHost)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/v1/events"

	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, err
	}

	data := struct {
		Build     string
		EventsURL string
		NodeHost  string
	}{
		Build:     build,
		EventsURL: u.String(),
		NodeHost:  nodeHost,
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}

	return &index{page: b.Bytes()}, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(ig.page)
	return err
}
