package main

import (
	"bb01/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// initDB opens the Postgres connection and, unless disabled, runs the schema
// migrations. TranslateError turns driver unique-violation errors into
// gorm.ErrDuplicatedKey so no caller ever matches on error strings.
func initDB(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		// Migrate models individually so a failure on one doesn't block others
		for _, model := range []any{
			&models.AuthIdentity{},
			&models.User{},
			&models.RevokedToken{},
			&models.Board{},
			&models.BoardMember{},
			&models.Organisation{},
		} {
			if err := db.AutoMigrate(model); err != nil {
				log.Warn().Err(err).Msgf("migration warning (%T)", model)
			}
		}
	}

	return db, nil
}
