package db

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenGorm connects to MySQL. Duplicate-key errors are translated to gorm.ErrDuplicatedKey so
// the repositories can map them onto domain errors.
func OpenGorm(dsn string, log gormlogger.Interface) (*gorm.DB, error) {
	return open(mysql.Open(dsn), log)
}

// OpenGormWithDialector is OpenGorm for a prepared dialector (sqlmock, sqlite).
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	return open(dial, gormlogger.Discard)
}

func open(dial gorm.Dialector, log gormlogger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         log,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
