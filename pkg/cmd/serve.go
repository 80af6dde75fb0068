package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/cropvault/pkg/api"
	"github.com/yeisme/cropvault/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	a := app.NewApp(configPath)
	api.RegisterGroup(a.Engine, a.Manager)

	return a.Run()
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
