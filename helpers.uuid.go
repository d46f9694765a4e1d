package main

import (
	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for getting a uid.
type UIDHandler interface {
	Generate(prefix string) string
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier. An empty
// prefix returns the bare uuid.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	if prefix == "" {
		return id.String()
	}
	return prefix + ":" + id.String()
}
