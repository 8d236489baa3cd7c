package contracts

import "github.com/julienschmidt/httprouter"

// Handler mounts one service area's routes. Every route is wrapped by the
// shared middleware chain in pkg/app.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
