package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
	output  string
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func (o *options) requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fundsbook-cli",
		Short:         "FundsBook CLI tool",
		Long:          `A command line interface for interacting with the FundsBook API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(opts.output)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", opts.baseURL, "Base URL of the FundsBook API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", opts.token, "Bearer token (defaults to $FUNDSBOOK_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", opts.timeout, "Request timeout")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "Output format: table, json or yaml")

	rootCmd.AddCommand(ledgerCmd(opts), entryCmd(opts), shelvesCmd(opts))
	return rootCmd
}

func ledgerCmd(opts *options) *cobra.Command {
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	var bookID, entryType string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show a book's entries with running balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			path := "/api/v1/books/" + url.PathEscape(bookID) + "/ledger"
			if entryType != "" {
				path += "?type=" + url.QueryEscape(entryType)
			}

			var resp dto.LedgerResponse
			if err := opts.client().do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, &resp, func(w *tableWriter) {
				printLedgerTable(w, &resp)
			})
		},
	}
	show.Flags().StringVar(&bookID, "book", "", "Book ID")
	show.Flags().StringVar(&entryType, "type", "", "Only show entries of this type (IN or OUT)")
	_ = show.MarkFlagRequired("book")

	ledger.AddCommand(show)
	return ledger
}

func entryCmd(opts *options) *cobra.Command {
	entry := &cobra.Command{
		Use:   "entry",
		Short: "Entry operations",
	}

	var (
		bookID         string
		req            addEntryBody
		idempotencyKey string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an entry to a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			var headers map[string]string
			if idempotencyKey != "" {
				headers = map[string]string{middleware.IdempotencyKeyHeader: idempotencyKey}
			}

			var resp dto.EntryResponse
			path := "/api/v1/books/" + url.PathEscape(bookID) + "/entries"
			if err := opts.client().do(ctx, http.MethodPost, path, headers, &req, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, &resp, func(w *tableWriter) {
				printEntriesTable(w, []*dto.EntryResponse{&resp})
			})
		},
	}
	add.Flags().StringVar(&bookID, "book", "", "Book ID")
	add.Flags().StringVar(&req.Amount, "amount", "", "Amount, e.g. 12.50")
	add.Flags().StringVar(&req.Type, "type", "", "Entry type: IN or OUT")
	add.Flags().StringVar(&req.Remark, "remark", "", "Remark")
	add.Flags().StringVar(&req.Category, "category", "", "Category")
	add.Flags().StringVar(&req.Party, "party", "", "Counterparty")
	add.Flags().StringVar(&req.PaymentMode, "payment-mode", "", "Payment mode")
	add.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key for safe retries")
	for _, name := range []string{"book", "amount", "type"} {
		_ = add.MarkFlagRequired(name)
	}

	entry.AddCommand(add)
	return entry
}

// addEntryBody sends the amount as a string so no precision is lost.
type addEntryBody struct {
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	PaymentMode string `json:"payment_mode,omitempty"`
	Category    string `json:"category,omitempty"`
	Party       string `json:"party,omitempty"`
	Remark      string `json:"remark,omitempty"`
}

func shelvesCmd(opts *options) *cobra.Command {
	shelves := &cobra.Command{
		Use:   "shelves",
		Short: "Bookshelf operations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the bookshelves you belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.requestContext(cmd)
			defer cancel()

			var resp dto.ListBookshelvesResponse
			if err := opts.client().do(ctx, http.MethodGet, "/api/v1/bookshelves", nil, nil, &resp); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, &resp, func(w *tableWriter) {
				printShelvesTable(w, resp.Bookshelves)
			})
		},
	}

	shelves.AddCommand(list)
	return shelves
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
