package typedapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/typedapi/typedapi/pkg/logger"
)

const swaggerShell = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "openapi.json",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`

const redocShell = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
</head>
<body>
  <redoc spec-url="openapi.json"></redoc>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`

// mountDocs serves the document and both UI shells. The document is
// rendered once, after freeze, and replayed from memory.
func (a *App) mountDocs(r chi.Router) {
	var once sync.Once
	var body []byte
	var renderErr error

	render := func() {
		once.Do(func() {
			body, renderErr = json.MarshalIndent(a.OpenAPI(), "", "  ")
		})
	}

	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		render()
		if renderErr != nil {
			a.log.ErrorContext(req.Context(), "OpenAPI render failed", logger.Error(renderErr))
			writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	})

	r.Get("/docs", htmlShell(swaggerShell, a.info.Title))
	r.Get("/redoc", htmlShell(redocShell, a.info.Title))
}

func htmlShell(shell, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, shell, title)
	}
}
