package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"losers-alert/internal/bootstrap"
	alertDomain "losers-alert/internal/domain/alert"

	"github.com/spf13/cobra"
)

func runOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Run the alert pipeline once for today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Scheduler.RunNow(ctx)
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func thresholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Read or change the drop threshold (percent)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", app.Thresholds.Get(ctx))
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set VALUE",
		Short: "Set the threshold; input is limited to 1..99 and stored within 0..95",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid threshold %q: %w", args[0], err)
			}
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				stored, err := app.Thresholds.Set(ctx, alertDomain.ClampInput(v))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", stored)
				return err
			})
		},
	})
	return cmd
}

func pinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin SYMBOL",
		Short: "Toggle the pin on a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				pinned, err := app.UIState.TogglePin(ctx, args[0])
				if err != nil {
					return err
				}
				state := "unpinned"
				if pinned {
					state = "pinned"
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], state)
				return err
			})
		},
	}
}

func dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss SYMBOL",
		Short: "Hide a symbol for the rest of today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				return app.UIState.Dismiss(ctx, args[0], app.Today())
			})
		},
	}
}

func undismissAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undismiss-all",
		Short: "Show every symbol hidden today again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				return app.UIState.UndismissAll(ctx, app.Today())
			})
		},
	}
}

func viewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Fetch losers and print today's filtered view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				app.Refresher.Refresh(ctx)
				return printJSON(cmd.OutOrStdout(), app.Watchlist.View(ctx, app.Today()))
			})
		},
	}
}

func diagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diag",
		Short: "Check Yahoo connectivity and run a 3-row smoke test",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				return printJSON(cmd.OutOrStdout(), app.Diagnostics.Run(ctx))
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the mutating API routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens := bootstrap.NewTokenIssuer(cfg)
			token, exp, err := tokens.Issue(subject)
			if err != nil {
				return err
			}
			out := map[string]string{"token": token}
			if !exp.IsZero() {
				out["expires_at"] = exp.Format(time.RFC3339)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Name recorded in the token")
	return cmd
}
