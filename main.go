package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/SambhavSharma7781/Forms4U-sub000/app"
	"github.com/SambhavSharma7781/Forms4U-sub000/config"
	"github.com/SambhavSharma7781/Forms4U-sub000/database"
	"github.com/SambhavSharma7781/Forms4U-sub000/edittoken"
	"github.com/SambhavSharma7781/Forms4U-sub000/forms"
	"github.com/SambhavSharma7781/Forms4U-sub000/httpx"
	"github.com/SambhavSharma7781/Forms4U-sub000/log"
	"github.com/SambhavSharma7781/Forms4U-sub000/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Forms:        forms.Engine{DB: db},
		EditTokens: edittoken.Issuer{
			Secret: []byte(cfg.TokenSecret),
			TTL:    cfg.EditTokenTTL,
		},
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
