package main

import (
	"net/http"

	"github.com/caseforge/dossier/internal/definitions"
	"github.com/caseforge/dossier/internal/documents"
	"github.com/caseforge/dossier/internal/files"
	"github.com/caseforge/dossier/internal/snapshots"
	"github.com/caseforge/dossier/pkg/routes"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	api := routes.Group{
		Prefix:      "/api",
		Description: "Versioned document store API",
		Children: []routes.Group{
			definitions.NewHandler(app.definitions, app.logger, app.config.Pagination).Routes(),
			documents.NewHandler(app.documents, app.logger, app.config.Pagination).Routes(),
			snapshots.NewHandler(app.snapshots, app.logger, app.config.Pagination).Routes(),
			files.NewHandler(app.files, app.logger, app.config.Pagination, app.config.Files.MaxUploadSizeBytes()).Routes(),
		},
	}
	routes.Mount(mux, api)

	return app.enableCORS(mux)
}
