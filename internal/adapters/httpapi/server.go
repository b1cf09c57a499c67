package httpapi

import (
	"github.com/dansportalen/directory-api/internal/app/images"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/app/venues"
)

// Server is the HTTP adapter over the application services. It only decodes
// requests, delegates, and encodes responses; all rules live below it.
type Server struct {
	Profiles      *profiles.Service
	Individuals   *individuals.Service
	Organizations *organizations.Service
	Venues        *venues.Service
	Images        *images.Service
}

func NewServer(
	profilesSvc *profiles.Service,
	individualsSvc *individuals.Service,
	organizationsSvc *organizations.Service,
	venuesSvc *venues.Service,
	imagesSvc *images.Service,
) *Server {
	return &Server{
		Profiles:      profilesSvc,
		Individuals:   individualsSvc,
		Organizations: organizationsSvc,
		Venues:        venuesSvc,
		Images:        imagesSvc,
	}
}
