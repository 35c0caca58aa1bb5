package persistence

import (
	"fmt"

	"trackpub/domain/model"
	"trackpub/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewNativeDb opens the local MySQL development database through GORM and
// auto-migrates the pipeline tables. Production uses MSSQL with explicit DDL
// instead; this path only serves local development.
func NewNativeDb() (*gorm.DB, error) {
	cfg := configuration.C.Database.MySql
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.Track{},
		&model.Account{},
		&model.WebhookReceipt{},
		&model.TrackJob{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
