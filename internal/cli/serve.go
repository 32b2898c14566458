package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpserver "neuroflow/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			exitErr("startup", err)
		}
		defer func() { _ = a.log.Sync() }()

		srv := httpserver.NewServer(a.gateway, a.intake, a.repo, a.notifier, a.log.Named("http"))

		// Log note-ready events so operators can watch sessions complete.
		if a.notifier != nil {
			events, err := a.notifier.Listen(cmd.Context())
			if err != nil {
				a.log.Warn("note listener unavailable", zap.Error(err))
			} else {
				go func() {
					for sessionID := range events {
						a.log.Info("note ready", zap.String("session_id", sessionID))
					}
				}()
			}
		}

		addr := fmt.Sprintf(":%d", a.cfg.HTTPPort)
		a.log.Info("listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, srv); err != nil {
			exitErr("server", err)
		}
	},
}
