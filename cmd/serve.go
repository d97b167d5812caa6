package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/billfold/billfold/internal/httpserve"
	"github.com/billfold/billfold/internal/server"
	"github.com/billfold/billfold/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

// NewServeCommand starts the HTTP server.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billfold server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := server.NewServerApp(config)
			if err != nil {
				return err
			}

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigs
				logger.Info("Received signal, shutting down", "signal", sig.String(), "uptime", a.GetUptime())
				os.Exit(0)
			}()

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			e = httpserve.RegisterRoutes(e, a)

			logger.Info("Starting server", "port", config.Http.Port, "origin", config.Http.AppOrigin)
			return e.Start(":" + config.Http.Port)
		},
	}
}
