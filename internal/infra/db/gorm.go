package db

import (
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gcfg := gormConfig(cfg.IsDev())

	switch cfg.DBDriver {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", cfg.SQLitePath)
		return openSQLite(dsn, gcfg)
	default:
		gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
		if err != nil {
			return nil, Classify(err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)

		if err := gdb.Use(TransientErrors{}); err != nil {
			return nil, err
		}
		return gdb, nil
	}
}

// テストやローカル用。"file:xxx?mode=memory&cache=shared" のようなDSNも渡せる
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return openSQLite(dsn, gormConfig(false))
}

func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	//SQLiteは書き込みが1本なので接続も1本にする
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := gdb.Use(TransientErrors{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

func gormConfig(dev bool) *gorm.Config {
	level := gormlogger.Silent
	if dev {
		level = gormlogger.Warn
	}
	return &gorm.Config{
		//一意制約違反などを gorm.ErrDuplicatedKey に揃える
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate は全テーブルを作成・更新する
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(model.All()...)
}
