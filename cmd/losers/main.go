// Command losers 為跌幅榜通知服務的 CLI。
//
// Usage:
//
//	losers serve
//	losers run-once
//	losers threshold get
//	losers threshold set 30
//	losers pin BRK.B
//	losers dismiss AAPL
//	losers undismiss-all
//	losers view
//	losers diag
//	losers token --subject ops
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"losers-alert/internal/bootstrap"
	"losers-alert/internal/infrastructure/config"
	"losers-alert/internal/infrastructure/logging"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "losers",
		Short:         "Day losers alert service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(runOnceCmd())
	root.AddCommand(thresholdCmd())
	root.AddCommand(pinCmd())
	root.AddCommand(dismissCmd())
	root.AddCommand(undismissAllCmd())
	root.AddCommand(viewCmd())
	root.AddCommand(diagCmd())
	root.AddCommand(tokenCmd())
	return root
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

// withApp 載入設定、組裝 App 並在 fn 結束後釋放資源。
func withApp(ctx context.Context, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
