package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fundsbook/internal/domain"
)

// EntryUseCaseConfig holds the dependencies of EntryUseCase.
type EntryUseCaseConfig struct {
	TxManager  TransactionManager
	ShelfRepo  BookshelfRepository
	BookRepo   BookRepository
	EntryRepo  EntryRepository
	OutboxRepo OutboxRepository
	IDGen      IDGenerator
	Notifier   ChangeNotifier  // optional
	Retrier    Retrier         // optional
	Metrics    MetricsRecorder // optional
	Logger     zerolog.Logger
}

// EntryUseCase handles transaction entries and ledger views of a book.
type EntryUseCase struct {
	txManager  TransactionManager
	access     bookAccess
	bookRepo   BookRepository
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	notifier   ChangeNotifier
	idGen      IDGenerator
	retrier    Retrier
	metrics    MetricsRecorder
	logger     zerolog.Logger
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(cfg EntryUseCaseConfig) *EntryUseCase {
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}

	return &EntryUseCase{
		txManager:  cfg.TxManager,
		access:     bookAccess{bookRepo: cfg.BookRepo, shelfRepo: cfg.ShelfRepo},
		bookRepo:   cfg.BookRepo,
		entryRepo:  cfg.EntryRepo,
		outboxRepo: cfg.OutboxRepo,
		notifier:   cfg.Notifier,
		idGen:      cfg.IDGen,
		retrier:    cfg.Retrier,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// AddEntryInput represents input for recording an entry.
type AddEntryInput struct {
	UserID      string
	BookID      string
	Amount      decimal.Decimal
	Type        domain.EntryType
	PaymentMode string
	Category    string
	Party       string
	Remark      string
}

// AddEntry records an entry in a book and bumps the book's last update,
// which also moves the book up its shelf's list.
func (uc *EntryUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*domain.Entry, error) {
	book, err := uc.access.authorizeBook(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, err
	}

	remark := strings.TrimSpace(input.Remark)
	entry := &domain.Entry{
		BookID:      book.ID,
		Amount:      input.Amount,
		Type:        domain.NormalizeEntryType(domain.EntryType(strings.TrimSpace(string(input.Type))), remark),
		PaymentMode: strings.TrimSpace(input.PaymentMode),
		Category:    strings.TrimSpace(input.Category),
		Party:       strings.TrimSpace(input.Party),
		Remark:      remark,
		CreatedBy:   input.UserID,
	}

	if err := domain.ValidateEntry(entry); err != nil {
		return nil, err
	}

	err = uc.retrier.Retry(ctx, func() error {
		return uc.insertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.EntryAdded(entry.Type)

	if err := notifyAll(ctx, uc.notifier, LedgerTopic(book.ID), BooksTopic(book.BookshelfID)); err != nil {
		uc.logger.Warn().Err(err).
			Str("book_id", book.ID).
			Str("entry_id", entry.ID).
			Msg("failed to publish entry change")
	}

	return entry, nil
}

func (uc *EntryUseCase) insertEntry(ctx context.Context, entry *domain.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = now

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	if err := uc.bookRepo.Touch(ctx, tx, entry.BookID, now); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeEntry, entry.ID, domain.EventTypeEntryCreated,
		domain.EntryCreatedEvent{
			EntryID:   entry.ID,
			BookID:    entry.BookID,
			Type:      string(entry.Type),
			Amount:    entry.Amount.String(),
			CreatedBy: entry.CreatedBy,
			CreatedAt: now.UnixMilli(),
		}, now)
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListEntries returns the raw entries of a book in creation order.
func (uc *EntryUseCase) ListEntries(ctx context.Context, userID, bookID string) ([]*domain.Entry, error) {
	book, err := uc.access.authorizeBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	return uc.entryRepo.ListByBook(ctx, book.ID)
}

// Ledger is the computed view of a book's entries.
type Ledger struct {
	BookID string
	Totals domain.Totals
	// Entries holds the entries matching Filter, each with the running
	// balance computed over the unfiltered sequence.
	Entries []domain.BalancedEntry
	Filter  domain.EntryType
	// Count is the number of entries before filtering.
	Count int
}

// BuildLedger computes totals and running balances over a full snapshot
// and then applies the type filter.
func BuildLedger(bookID string, entries []*domain.Entry, filter domain.EntryType) *Ledger {
	return &Ledger{
		BookID:  bookID,
		Totals:  domain.ComputeTotals(entries),
		Entries: domain.FilterByType(domain.ComputeRunningBalances(entries), filter),
		Filter:  filter,
		Count:   len(entries),
	}
}

// GetLedgerInput represents input for reading a ledger.
type GetLedgerInput struct {
	UserID string
	BookID string
	Filter domain.EntryType
}

// GetLedger reads the current snapshot of a book and computes its ledger.
func (uc *EntryUseCase) GetLedger(ctx context.Context, input GetLedgerInput) (*Ledger, error) {
	book, err := uc.access.authorizeBook(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, err
	}

	return uc.loadLedger(ctx, book.ID, input.Filter)
}

func (uc *EntryUseCase) loadLedger(ctx context.Context, bookID string, filter domain.EntryType) (*Ledger, error) {
	entries, err := uc.entryRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ledger := BuildLedger(bookID, entries, filter)
	uc.metrics.LedgerComputed(len(entries), time.Since(start))

	return ledger, nil
}

// WatchLedger calls fn with the current ledger and again after every change
// to the book, each time from a fresh full snapshot. It returns when ctx is
// done, when fn fails, or when the subscription closes.
func (uc *EntryUseCase) WatchLedger(ctx context.Context, input GetLedgerInput, fn func(*Ledger) error) error {
	book, err := uc.access.authorizeBook(ctx, input.UserID, input.BookID)
	if err != nil {
		return err
	}

	return watch(ctx, uc.notifier, LedgerTopic(book.ID), func() error {
		ledger, err := uc.loadLedger(ctx, book.ID, input.Filter)
		if err != nil {
			return err
		}
		return fn(ledger)
	})
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
