package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"losers-alert/internal/infrastructure/config"
	"losers-alert/internal/infrastructure/logging"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "讀取組態失敗: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.DB.DSN == "" {
		log.Fatal().Msg("config.db.dsn 未設定，無法執行 migration")
	}

	files, err := listMigrations(*migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("讀取 migrations 失敗")
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("連線資料庫失敗")
	}
	defer db.Close()

	applied, err := apply(db, files)
	if err != nil {
		log.Fatal().Err(err).Msg("migration 失敗")
	}
	log.Info().Int("applied", applied).Int("total", len(files)).Msg("migration 完成")
}
