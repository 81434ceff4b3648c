package http

import (
	"github.com/nimbusapp/nimbus-api/internal/application/otp"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/challenge"
	"github.com/nimbusapp/nimbus-api/internal/infrastructure/identity"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Identity   *identity.Client
	Factory    *identity.Factory
	Mailer     otp.Mailer
	Challenges challenge.Store
}
