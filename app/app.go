package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/pollwise/backend/config"
	"github.com/pollwise/backend/validation"
)

// App bundles the long-lived collaborators every handler needs: the
// database pool, the bearer-token server and the per-survey cache of
// compiled submission schemas.
type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Schemas *validation.SchemaCache
}
