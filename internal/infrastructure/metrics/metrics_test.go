package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/fundsbook/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.EntriesAdded == nil || m.HTTPRequests == nil || m.AuthAttempts == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.LedgerComputed(3, time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestEntryAddedGroupsCustomTypes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EntryAdded(domain.EntryTypeIn)
	m.EntryAdded(domain.EntryTypeOut)
	m.EntryAdded("Salary")
	m.EntryAdded("Refund")

	if got := testutil.ToFloat64(m.EntriesAdded.WithLabelValues("custom")); got != 2 {
		t.Fatalf("expected 2 custom entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.EntriesAdded.WithLabelValues("in")); got != 1 {
		t.Fatalf("expected 1 IN entry, got %v", got)
	}
}

func TestAuthAttempt(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.AuthAttempt("signin", true)
	m.AuthAttempt("signin", false)
	m.AuthAttempt("signin", false)

	if got := testutil.ToFloat64(m.AuthAttempts.WithLabelValues("signin", "failure")); got != 2 {
		t.Fatalf("expected 2 failures, got %v", got)
	}
}

func TestStreamGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StreamOpened()
	m.StreamOpened()
	m.SnapshotStreamed()
	m.StreamClosed()

	if got := testutil.ToFloat64(m.LedgerStreams); got != 1 {
		t.Fatalf("expected 1 open stream, got %v", got)
	}
	if got := testutil.ToFloat64(m.LedgerStreamSent); got != 1 {
		t.Fatalf("expected 1 snapshot sent, got %v", got)
	}
}

func TestRequestObserved(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestObserved("GET", "/api/v1/books/{id}/ledger", 200, 5*time.Millisecond)
	m.RequestObserved("GET", "/api/v1/books/{id}/ledger", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/books/{id}/ledger", "200")); got != 1 {
		t.Fatalf("expected 1 successful request, got %v", got)
	}
	if got := testutil.CollectAndCount(m.HTTPDuration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
}
