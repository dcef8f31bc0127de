package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/hello-api/internal/http/v1/greeting"
)

// Options carries per-route settings resolved from configuration.
type Options struct {
	Greeting greeting.Options
}

// Register wires all application routes into the provided API.
func Register(api huma.API, opts Options) {
	greeting.Register(api, opts.Greeting)
}
