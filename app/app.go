package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/SambhavSharma7781/Forms4U-sub000/config"
	"github.com/SambhavSharma7781/Forms4U-sub000/edittoken"
	"github.com/SambhavSharma7781/Forms4U-sub000/forms"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Forms      forms.Engine
	EditTokens edittoken.Issuer
}
