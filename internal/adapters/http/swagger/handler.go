// Package swagger serves the OpenAPI document and a Swagger UI for it.
package swagger

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// OpenAPI contains the embedded OpenAPI YAML specification.
//
//go:embed openapi.yaml
var OpenAPI []byte

// Paths served by Register.
const (
	SpecPath = "/openapi.yaml"
	UIPath   = "/swagger"
)

// Register attaches the Swagger UI and the OpenAPI spec routes to r.
// Routes:
//
//	GET /openapi.yaml         -> embedded OpenAPI spec
//	GET /swagger/index.html   -> Swagger UI loading /openapi.yaml
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get(SpecPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	r.Get(UIPath, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, UIPath+"/index.html", http.StatusMovedPermanently)
	})
	r.Get(UIPath+"/*", httpSwagger.Handler(
		httpSwagger.URL(SpecPath),
		httpSwagger.DocExpansion("list"),
	))
}
