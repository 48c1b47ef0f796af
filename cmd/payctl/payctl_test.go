package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"judokit/internal/core/domain"
)

func init() {
	color.NoColor = true
}

func TestPrintOutcome_Records(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, domain.Outcome{
		Records: []domain.TransactionRecord{{
			ReceiptID:        "1001",
			Type:             "Refund",
			Result:           "Success",
			Amount:           decimal.RequireFromString("4.5"),
			Currency:         "GBP",
			PaymentReference: "REF1",
			CreatedAt:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		}},
		Pagination: &domain.Pagination{PageSize: 10, Offset: 0, Sort: domain.SortTimeDescending},
	})

	out := buf.String()
	assert.Contains(t, out, "RECEIPT")
	assert.Contains(t, out, "1001")
	assert.Contains(t, out, "4.50 GBP")
	assert.Contains(t, out, "2026-03-01 09:00:00")
	assert.Contains(t, out, "page size 10")
}

func TestPrintOutcome_Challenge(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, domain.Outcome{Challenge: &domain.ThreeDSecureChallenge{ReceiptID: "77", AcsURL: "https://acs"}})
	assert.Contains(t, buf.String(), "3-D Secure required for receipt 77")
	assert.Contains(t, buf.String(), "https://acs")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	ve := domain.NewValidationError("amount", "must be positive")
	printError(&buf, ve)
	assert.Contains(t, buf.String(), "amount: must be positive")

	buf.Reset()
	printError(&buf, &domain.APIError{Code: domain.CodePaymentDeclined, Category: domain.CategoryDeclined, Message: "Card declined"})
	assert.Contains(t, buf.String(), "gateway error 11 (declined)")
	assert.Contains(t, buf.String(), "Card declined")
}

func TestRunChecksAndReport(t *testing.T) {
	checks := []check{
		{Name: "good", Func: func(context.Context) error { return nil }},
		{Name: "skipped", Func: func(context.Context) error { return errNotConfigured }},
		{Name: "bad", Func: func(context.Context) error { return errors.New("refused") }},
	}
	runChecks(context.Background(), checks)

	var buf bytes.Buffer
	assert.False(t, report(&buf, checks))
	assert.Contains(t, buf.String(), "[ OK ] good")
	assert.Contains(t, buf.String(), "[SKIP] skipped")
	assert.Contains(t, buf.String(), "[FAIL] bad")

	assert.True(t, report(&bytes.Buffer{}, checks[:2]))
}

func TestCheckHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	assert.NoError(t, checkHTTP(context.Background(), srv.URL+"/health"))
	assert.ErrorContains(t, checkHTTP(context.Background(), srv.URL+"/down"), "unexpected status")
}

type fakeFetcher struct {
	batches []kgo.Fetches
}

func (f *fakeFetcher) PollFetches(context.Context) kgo.Fetches {
	if len(f.batches) == 0 {
		return nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b
}

func fetchesOf(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "transaction-outcomes",
		Partitions: []kgo.FetchPartition{{Records: records}},
	}}}}
}

func TestPrintOutcomes(t *testing.T) {
	ok := &kgo.Record{Offset: 3, Key: []byte("REF1"), Value: []byte(`{"type":"payment","status":"SUCCEEDED","payment_reference":"REF1","amount":"9.99","currency":"GBP","receipt_id":"55"}`)}
	bad := &kgo.Record{Offset: 4, Key: []byte("REF2"), Value: []byte(`nope`)}
	extra := &kgo.Record{Offset: 5, Key: []byte("REF3"), Value: []byte(`{}`)}

	var buf bytes.Buffer
	printOutcomes(context.Background(), &buf, &fakeFetcher{batches: []kgo.Fetches{fetchesOf(ok, bad, extra)}}, 2)

	out := buf.String()
	assert.Contains(t, out, "REF1")
	assert.Contains(t, out, "SUCCEEDED")
	assert.Contains(t, out, "9.99 GBP")
	assert.Contains(t, out, "UNREADABLE")
	assert.NotContains(t, out, "REF3")
}
