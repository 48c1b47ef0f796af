package app

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"

	"judokit/internal/core/domain"
)

// MockGateway - implementation of the gateway port
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Get(ctx context.Context, path string, query url.Values) (domain.Outcome, error) {
	args := m.Called(ctx, path, query)
	return args.Get(0).(domain.Outcome), args.Error(1)
}

func (m *MockGateway) Post(ctx context.Context, path string, body map[string]any) (domain.Outcome, error) {
	args := m.Called(ctx, path, body)
	return args.Get(0).(domain.Outcome), args.Error(1)
}

func (m *MockGateway) Put(ctx context.Context, path string, body map[string]any) (domain.Outcome, error) {
	args := m.Called(ctx, path, body)
	return args.Get(0).(domain.Outcome), args.Error(1)
}

type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Claim(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuard) Release(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, entry domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) PublishOutcome(ctx context.Context, entry domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type staticSignal map[string]any

func (s staticSignal) Signal(context.Context) (map[string]any, error) {
	return s, nil
}

type fixedReference string

func (r fixedReference) PaymentReference() string { return string(r) }
