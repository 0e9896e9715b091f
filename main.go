package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bb01/pkg/tokens"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Auto-load ./.env if present (no external dependency) before reading vars
	loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Support a lightweight migrate command: `./bb01_app migrate`
	// It runs AutoMigrate then exits. Useful for CI or manual DB setup.
	migrateOnly := len(os.Args) > 1 && os.Args[1] == "migrate"
	if migrateOnly {
		cfg.AutoMigrate = true
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect postgres database")
	}

	if migrateOnly {
		fmt.Println("migration completed")
		return
	}

	codec := tokens.NewCodec(tokens.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	identities := NewIdentityStore(db)
	ledger := NewRevocationLedger(db)
	server := NewServer(
		NewAuthService(NewUserStore(db, identities), identities, ledger, codec),
		NewBoardService(db),
		codec,
	)

	// Hourly sweep of revocation ledger rows whose ttl has passed. The sweep
	// is not load-bearing; a missed run only leaves dead rows around longer.
	go func() {
		for range time.Tick(time.Hour) {
			n, err := ledger.PurgeExpired(context.Background(), time.Now())
			if err != nil {
				log.Warn().Err(err).Msg("revocation ledger purge failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("rows", n).Msg("purged expired revocation ledger rows")
			}
		}
	}()

	r := gin.Default()
	server.setupRoutes(r)

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
