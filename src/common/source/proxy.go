package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/common/types"
)

// proxyStrategy routes the same site request through a CORS proxy. Proxies
// come in two shapes: query-parameter style, where the target URL must be
// escaped, and path style, where it is appended as-is.
type proxyStrategy struct {
	client *http.Client
	proxy  string
	cfg    *config.Config
}

func (s *proxyStrategy) Name() string {
	if u, err := url.Parse(s.proxy); err == nil && u.Host != "" {
		return "proxy:" + u.Host
	}
	return "proxy"
}

func (s *proxyStrategy) Attempt(ctx context.Context) (types.Snapshot, error) {
	body, err := fetchBody(ctx, s.client, proxyURL(s.proxy, departuresURL(s.cfg)))
	if err != nil {
		return types.Snapshot{}, unavailable(s.Name(), err)
	}
	return buildSnapshot(s.Name(), unwrapEnvelope(body), types.SourceProxy, s.cfg)
}

func proxyURL(proxy, target string) string {
	if strings.HasSuffix(proxy, "=") {
		return proxy + url.QueryEscape(target)
	}
	return proxy + target
}

// Some proxies wrap the upstream body in a JSON envelope instead of passing
// it through.
func unwrapEnvelope(body []byte) []byte {
	var envelope struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Contents != "" {
		return []byte(envelope.Contents)
	}
	return body
}
