package main

import (
	"fmt"

	wsgin "github.com/Mati018/website-search/gin"
)

// ServeCmd runs the HTTP API server until interrupted.
type ServeCmd struct {
	Addr        string `help:"Address to listen on." default:":8000"`
	AllowOrigin string `help:"Origin allowed to call the API from a browser." default:"http://localhost:3000"`
}

func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := wsgin.NewServer(deps.Service)
	srv.Addr = c.Addr
	srv.AllowOrigin = c.AllowOrigin
	srv.Logger = deps.Logger

	if err := srv.Open(); err != nil {
		return fmt.Errorf("failed to start server on %q: %w", c.Addr, err)
	}
	defer srv.Close()

	fmt.Fprintf(deps.Stdout, "Listening on %s\n", srv.URL())

	<-deps.Ctx.Done()
	fmt.Fprintln(deps.Stdout, "Shutting down...")
	return nil
}
