package bridge

import (
	_ "embed"
	"net/http"
	"strings"
)

//go:embed executor.js
var executorJS string

// ExecutorHandler serves the in-page executor script, pointed at the
// /bridge endpoint of the host the request was made to.
func ExecutorHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Write([]byte(strings.Replace(executorJS, "{{BRIDGE_URL}}", bridgeURL(r), 1)))
	})
}

func bridgeURL(r *http.Request) string {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host + "/bridge"
}
