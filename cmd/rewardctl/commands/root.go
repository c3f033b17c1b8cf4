package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/coin_shop/internal/app"
	"github.com/Skotchmaster/coin_shop/internal/config"
	pkgconfig "github.com/Skotchmaster/coin_shop/pkg/config"
	"github.com/Skotchmaster/coin_shop/pkg/logging"
)

type state struct {
	envFile string
	app     *app.App
}

func Execute() error {
	root, st := newRoot()
	defer st.close()
	return root.Execute()
}

func (st *state) close() {
	if st.app != nil {
		_ = st.app.Close()
		st.app = nil
	}
}

func newRoot() (*cobra.Command, *state) {
	st := &state{}
	root := &cobra.Command{
		Use:          "rewardctl",
		Short:        "Operator tool for the coin shop",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if st.envFile != "" {
				pkgconfig.LoadEnvFile(st.envFile)
			}
			cfg := config.FromEnv()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			a, err := app.New(cmd.Context(), cfg, logging.New(cfg.LogLevel))
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "env file to load before reading the environment")

	root.AddCommand(
		migrateCmd(st),
		seedCmd(st),
		grantCoinsCmd(st),
		makeAdminCmd(st),
		reindexCmd(st),
	)
	return root, st
}
