package database

import (
	"fmt"
	"fulfillment-wms/config"
	"regexp"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to dbName on the server configured by DB_DRIVER.
func Open(dbName string) (*gorm.DB, error) {
	dialector, err := dialectorFor(dbName)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func dialectorFor(dbName string) (gorm.Dialector, error) {
	switch config.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			config.DBHost, config.DBUser, config.DBPassword, dbName, config.DBPort)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return mysql.Open(dsn), nil
	case "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			config.DBUser, config.DBPassword, config.DBHost, config.DBPort, dbName)
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}
}

// EnsureDatabaseExists creates dbName when the server does not have it yet.
func EnsureDatabaseExists(dbName string) error {
	if !isValidDBName(dbName) {
		return fmt.Errorf("invalid database name %q", dbName)
	}

	var server string
	switch config.DBDriver {
	case "postgres":
		server = "postgres"
	case "mssql":
		server = "master"
	}
	dialector, err := dialectorFor(server)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("connect to database server: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch config.DBDriver {
	case "postgres":
		var exists bool
		if err := db.Raw("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = ?)", dbName).Scan(&exists).Error; err != nil {
			return err
		}
		if !exists {
			return db.Exec("CREATE DATABASE " + dbName).Error
		}
		return nil
	case "mysql":
		return db.Exec("CREATE DATABASE IF NOT EXISTS " + dbName).Error
	case "mssql":
		return db.Exec("IF DB_ID('" + dbName + "') IS NULL CREATE DATABASE " + dbName).Error
	}
	return nil
}

func isValidDBName(name string) bool {
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_]+$`, name)
	return matched
}
