package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlibekovAA/social-hub/internal/common/bootstrap"
	"github.com/AlibekovAA/social-hub/internal/common/server"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "social-hub: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(app.Config.HTTPPort, app.Handler)
	err = server.Run(ctx, srv, app.Log, "social-hub", app.ShutdownHooks())
	app.Close()
	if err != nil {
		app.Log.Fatalf("server error: %v", err)
	}
}
