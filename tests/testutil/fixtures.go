package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/fundsbook/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fundsbook/internal/adapter/repository/redis"
	"github.com/iho/fundsbook/internal/infrastructure/auth"
	"github.com/iho/fundsbook/internal/infrastructure/postgres"
	"github.com/iho/fundsbook/internal/usecase"
)

// TestPassword satisfies the password rules.
const TestPassword = "Secret123"

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and migrates it. The test is skipped
// when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "migrations"
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	db.TruncateAll(ctx)
	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events, transactions, books, bookshelves, users CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CountRows returns the number of rows in table matching the optional
// where clause.
func (db *TestDB) CountRows(ctx context.Context, table, where string, args ...any) int {
	db.t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}

	var n int
	if err := db.Pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		db.t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// App wires the use cases against the test database and an in-memory Redis.
type App struct {
	DB         *TestDB
	Redis      *goredis.Client
	Tokens     *auth.JWTManager
	Sessions   *redisRepo.SessionStore
	OutboxRepo *postgresRepo.OutboxRepository

	Auth    *usecase.AuthUseCase
	Shelves *usecase.BookshelfUseCase
	Books   *usecase.BookUseCase
	Entries *usecase.EntryUseCase
}

// NewApp builds an App. Cleanup is registered on t.
func NewApp(t *testing.T) *App {
	t.Helper()

	db := NewTestDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		db.Cleanup()
	})

	logger := zerolog.Nop()
	pool := db.Pool
	txManager := postgresRepo.NewTxManager(pool)
	shelfRepo := postgresRepo.NewBookshelfRepository(pool)
	bookRepo := postgresRepo.NewBookRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	tokens := auth.NewJWTManager("integration-test-secret-0123456789abcdef", time.Hour)
	sessions := redisRepo.NewSessionStore(client)
	notifier := redisRepo.NewChangeNotifier(client)

	shelves := usecase.NewBookshelfUseCase(txManager, shelfRepo, outboxRepo, idGen, notifier, logger)

	return &App{
		DB:         db,
		Redis:      client,
		Tokens:     tokens,
		Sessions:   sessions,
		OutboxRepo: outboxRepo,
		Shelves:    shelves,
		Books:      usecase.NewBookUseCase(txManager, shelfRepo, bookRepo, outboxRepo, idGen, notifier, logger),
		Entries: usecase.NewEntryUseCase(usecase.EntryUseCaseConfig{
			TxManager:  txManager,
			ShelfRepo:  shelfRepo,
			BookRepo:   bookRepo,
			EntryRepo:  postgresRepo.NewEntryRepository(pool),
			OutboxRepo: outboxRepo,
			IDGen:      idGen,
			Notifier:   notifier,
			Retrier:    postgresRepo.NewRetrier(logger),
			Logger:     logger,
		}),
		Auth: usecase.NewAuthUseCase(usecase.AuthUseCaseConfig{
			TxManager:     txManager,
			UserRepo:      postgresRepo.NewUserRepository(pool),
			OutboxRepo:    outboxRepo,
			Tokens:        tokens,
			Sessions:      sessions,
			ResetTokens:   redisRepo.NewResetTokenStore(client),
			Shelves:       shelves,
			IDGen:         idGen,
			ResetTokenGen: auth.NewResetTokenGenerator(),
			ResetTokenTTL: time.Hour,
			SessionTTL:    time.Hour,
			BcryptCost:    4,
			Logger:        logger,
		}),
	}
}

// SignUp creates a user with a unique email and returns the auth result.
func (a *App) SignUp(ctx context.Context, name string) *usecase.AuthResult {
	a.DB.t.Helper()

	res, err := a.Auth.SignUp(ctx, usecase.SignUpInput{
		Email:       name + "-" + GenerateID() + "@example.com",
		Password:    TestPassword,
		DisplayName: name,
	})
	if err != nil {
		a.DB.t.Fatalf("failed to sign up %s: %v", name, err)
	}
	return res
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
