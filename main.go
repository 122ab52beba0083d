package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"ctrl.dev/mpcd/api"
	"ctrl.dev/mpcd/cli"
	"ctrl.dev/mpcd/params"
	"ctrl.dev/mpcd/settings"
	"ctrl.dev/mpcd/utils"
)

func main() {
	params.EnsureParamDirectories()
	settings.Settings.LoadWithRetries(3)

	cli.Handle()

	settings.Settings.SetLogLevel()

	status := api.NewStatus()
	go func() {
		statusServer := api.NewServer(status)
		slog.Info("status server listening", "addr", settings.Settings.StatusListen)
		err := http.ListenAndServe(settings.Settings.StatusListen, statusServer.ServeMux())
		utils.Logwe(errors.Wrap(err, "status server stopped"))
	}()

	server := &Server{
		Addr:   settings.Settings.Listen,
		Status: status,
	}
	utils.Check(server.Listen(context.Background()))
}
