package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain HTTP handler so the application
// shell can mount it without knowing the domain.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
