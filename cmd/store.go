package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/accessrequest"
	requestPostgres "github.com/frahmantamala/payable/internal/accessrequest/postgres"
	"github.com/frahmantamala/payable/internal/category"
	categoryPostgres "github.com/frahmantamala/payable/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
	requestDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/userrequest"
	"github.com/frahmantamala/payable/internal/expense"
	expensePostgres "github.com/frahmantamala/payable/internal/expense/postgres"
	"github.com/frahmantamala/payable/internal/store/filestore"
	"github.com/frahmantamala/payable/internal/store/mongostore"
	"github.com/frahmantamala/payable/internal/transport/rest"
	"github.com/frahmantamala/payable/internal/user"
	userPostgres "github.com/frahmantamala/payable/internal/user/postgres"
)

// Stores is the entity store for the configured driver.
type Stores struct {
	Users      user.RepositoryAPI
	Requests   accessrequest.RepositoryAPI
	Categories category.RepositoryAPI
	Expenses   expense.Repository
	Pinger     rest.Pinger
	Close      func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg internal.DatabaseConfig, lg *slog.Logger) (*Stores, error) {
	switch cfg.Driver {
	case internal.DriverPostgres, internal.DriverSQLite:
		return openGormStores(cfg, lg)

	case internal.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.Source, cfg.Name)
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
		lg.Info("connected to mongo", "database", cfg.Name)
		return &Stores{
			Users:      ms.Users(),
			Requests:   ms.Requests(),
			Categories: ms.Categories(),
			Expenses:   ms.Expenses(),
			Pinger:     ms,
			Close:      ms.Close,
		}, nil

	case internal.DriverFile:
		store, err := filestore.Open(cfg.Source)
		if err != nil {
			return nil, err
		}
		lg.Info("using file store", "path", cfg.Source)
		return &Stores{
			Users:      store.Users(),
			Requests:   store.Requests(),
			Categories: store.Categories(),
			Expenses:   store.Expenses(),
			Pinger:     store,
			Close:      func(context.Context) error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// openSQLX connects the pgx pool that gorm and the health check share.
func openSQLX(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return dbConn, nil
}

func openGormDB(cfg internal.DatabaseConfig) (*gorm.DB, *sql.DB, error) {
	var dialector gorm.Dialector
	if cfg.Driver == internal.DriverPostgres {
		conn, err := openSQLX(cfg)
		if err != nil {
			return nil, nil, err
		}
		dialector = postgres.New(postgres.Config{Conn: conn.DB})
	} else {
		dialector = sqlite.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Driver == internal.DriverSQLite {
		// sqlite allows one writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, sqlDB, nil
}

func openGormStores(cfg internal.DatabaseConfig, lg *slog.Logger) (*Stores, error) {
	db, sqlDB, err := openGormDB(cfg)
	if err != nil {
		return nil, err
	}

	// postgres schema belongs to goose unless auto_migrate is set
	if cfg.Driver == internal.DriverSQLite || cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&userDatamodel.User{},
			&requestDatamodel.UserRequest{},
			&categoryDatamodel.Category{},
			&expenseDatamodel.Expense{},
		); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	lg.Info("connected to database", "driver", cfg.Driver)
	return &Stores{
		Users:      userPostgres.NewUserRepository(db),
		Requests:   requestPostgres.NewRequestRepository(db),
		Categories: categoryPostgres.NewCategoryRepository(db),
		Expenses:   expensePostgres.NewExpenseRepository(db),
		Pinger:     sqlDB,
		Close:      func(context.Context) error { return sqlDB.Close() },
	}, nil
}
