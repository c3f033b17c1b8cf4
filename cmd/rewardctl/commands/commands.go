package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coin_shop/internal/models"
	"github.com/Skotchmaster/coin_shop/internal/repo"
	"github.com/Skotchmaster/coin_shop/internal/transport"
)

func migrateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := repo.Migrate(st.app.DB.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func seedCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog and campaigns into empty tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := st.app.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products, %d campaigns\n", res.Products, res.Campaigns)
			return nil
		},
	}
}

func grantCoinsCmd(st *state) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "grant-coins [--reason text] [username] [amount]",
		Short: "Credit (or with a negative amount, debit) a user's coins",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[1], err)
			}
			user, err := lookupUser(cmd, st, args[0])
			if err != nil {
				return err
			}

			tx, err := st.app.Coins.Adjust(cmd.Context(), transport.AdjustCoinsRequest{
				UserID: user.ID,
				Delta:  amount,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s balance: %d\n", user.Username, tx.BalanceAfter)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "granted by operator", "ledger description")
	// Flags go before the username so a negative amount is not read as one.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func makeAdminCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "make-admin [username]",
		Short: "Give a user the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := lookupUser(cmd, st, args[0])
			if err != nil {
				return err
			}
			if err := st.app.Repo.SetRole(cmd.Context(), user.ID, models.RoleAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin, effective on next token refresh\n", user.Username)
			return nil
		},
	}
}

func reindexCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Push every product to the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := st.app.Catalog.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products\n", n)
			return nil
		},
	}
}

func lookupUser(cmd *cobra.Command, st *state, username string) (*models.User, error) {
	user, err := st.app.Repo.GetUserByUsername(cmd.Context(), username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q not found", username)
	}
	return user, err
}
