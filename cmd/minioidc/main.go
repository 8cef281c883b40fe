// Command minioidc es el servidor OIDC y sus herramientas de administración.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/minioidc/internal/config"
	"github.com/dropDatabas3/minioidc/internal/observability/logger"
)

var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		configPath: os.Getenv("MINIOIDC_CONFIG"),
		envFile:    ".env",
	}

	root := &cobra.Command{
		Use:           "minioidc",
		Short:         "Servidor OIDC mínimo (authorization code + refresh, federación)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env es opcional
			if opts.envFile != "" {
				_ = godotenv.Load(opts.envFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "ruta a config.yaml (env MINIOIDC_CONFIG)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile, "archivo .env a cargar si existe")

	root.AddCommand(
		newServeCmd(opts),
		newKeysCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

// loadConfig carga la config e inicializa el logger con ella.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "minioidc",
		Version:     version,
	})
	return cfg, nil
}
