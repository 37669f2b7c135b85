package routes

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"github.com/SambhavSharma7781/Forms4U-sub000/app"
	"github.com/SambhavSharma7781/Forms4U-sub000/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	// respondent endpoints
	api.Get("/forms/{id}", PublicGetFormById(app))
	api.Post("/forms/{id}/responses", PublicSubmitResponse(app))
	api.Put("/forms/{id}/responses/{responseId}", PublicEditResponse(app))

	// form-authoring endpoints
	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Owner(app.TokenSecret))

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Get("/forms/{id}/responses", GetFormResponses(app))
	})

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
