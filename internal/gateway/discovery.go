package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Well-known metadata paths probed by MCP clients before they open a
// session. Some clients append the transport path, so each is also served
// with an /sse suffix.
const (
	ProtectedResourcePath   = "/.well-known/oauth-protected-resource"
	AuthorizationServerPath = "/.well-known/oauth-authorization-server"
)

// protectedResourceMetadata declares that the resource needs no
// authorization server.
type protectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
}

// registerDiscoveryRoutes mounts the static discovery stubs. They never
// touch the registry or a session and always answer 200.
func registerDiscoveryRoutes(mux *http.ServeMux, publicURL string) {
	resource := protectedResourceHandler(publicURL)
	for _, path := range []string{ProtectedResourcePath, ProtectedResourcePath + "/sse"} {
		mux.HandleFunc("GET "+path, resource)
	}
	for _, path := range []string{AuthorizationServerPath, AuthorizationServerPath + "/sse"} {
		mux.HandleFunc("GET "+path, authorizationServerHandler)
	}
}

func protectedResourceHandler(publicURL string) http.HandlerFunc {
	publicURL = strings.TrimRight(publicURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		origin := publicURL
		if origin == "" {
			origin = requestOrigin(r)
		}
		writeJSON(w, protectedResourceMetadata{
			Resource:             origin,
			AuthorizationServers: []string{},
		})
	}
}

func authorizationServerHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, struct{}{})
}

// requestOrigin derives scheme://host from the request, honoring the usual
// reverse proxy headers.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
