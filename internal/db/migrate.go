package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"ronda-app-go/pkg/logger"
)

const (
	migrationsDirName = "migrations"
	// migrationLockID is the pg_advisory_lock key that keeps two instances
	// starting against the same database from migrating at the same time.
	migrationLockID = 7420_0001
)

// Migrate applies every *.sql file of dirName that schema_migrations does not
// list yet, in file name order. Each file and its schema_migrations row are
// committed together. A relative dirName is looked up from the working
// directory upwards.
func Migrate(db *gorm.DB, dirName string, log logger.Logger) error {
	if dirName == "" {
		dirName = migrationsDirName
	}
	path, err := findMigrationsDir(dirName)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("db: migrations directory not found", "dir", dirName)
		return nil
	}
	if err != nil {
		return err
	}

	files, err := migrationFiles(path)
	if err != nil {
		return err
	}

	return db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", migrationLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer conn.Exec("SELECT pg_advisory_unlock(?)", migrationLockID)

		if err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`).Error; err != nil {
			return fmt.Errorf("create schema_migrations: %w", err)
		}

		var done []string
		if err := conn.Raw("SELECT filename FROM schema_migrations").Scan(&done).Error; err != nil {
			return fmt.Errorf("read schema_migrations: %w", err)
		}
		applied := make(map[string]bool, len(done))
		for _, name := range done {
			applied[name] = true
		}

		count := 0
		for _, name := range files {
			if applied[name] {
				continue
			}
			contents, err := os.ReadFile(filepath.Join(path, name))
			if err != nil {
				return err
			}
			sql := strings.TrimSpace(string(contents))
			if sql == "" {
				continue
			}

			err = conn.Transaction(func(tx *gorm.DB) error {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
				return tx.Exec("INSERT INTO schema_migrations (filename) VALUES (?)", name).Error
			})
			if err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			count++
			log.Info("db: migration applied", "file", name)
		}

		log.Info("db: schema up to date", "applied", count, "known", len(files))
		return nil
	})
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func findMigrationsDir(dirName string) (string, error) {
	if filepath.IsAbs(dirName) {
		if info, err := os.Stat(dirName); err != nil {
			return "", err
		} else if !info.IsDir() {
			return "", os.ErrNotExist
		}
		return dirName, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
