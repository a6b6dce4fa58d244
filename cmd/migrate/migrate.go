package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
)

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// listMigrations 回傳 dir 下依檔名排序的 .sql 檔。
func listMigrations(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析 migrations 路徑失敗: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("migrations 目錄不存在: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("找不到任何 .sql migration 檔案")
	}
	sort.Strings(files)
	return files, nil
}

// apply 依序執行尚未套用的 migration，每個檔案與其版本紀錄在同一個交易中。
func apply(db *sql.DB, files []string) (int, error) {
	if _, err := db.Exec(createVersionTable); err != nil {
		return 0, fmt.Errorf("建立 schema_migrations 失敗: %w", err)
	}

	applied := 0
	for _, f := range files {
		version := filepath.Base(f)
		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("查詢版本 %s 失敗: %w", version, err)
		}
		if exists {
			log.Debug().Str("version", version).Msg("已套用，略過")
			continue
		}

		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			return applied, fmt.Errorf("讀取檔案 %s 失敗: %w", version, err)
		}
		tx, err := db.Begin()
		if err != nil {
			return applied, err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("執行 %s 失敗: %w", version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("記錄版本 %s 失敗: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, err
		}
		log.Info().Str("version", version).Msg("執行 migration")
		applied++
	}
	return applied, nil
}
