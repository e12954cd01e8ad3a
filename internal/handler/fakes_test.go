package handler

import (
    "context"
    "strings"
    "sync"

    "github.com/stretchr/testify/mock"

    "github.com/iliyamo/backoffice/internal/model"
    "github.com/iliyamo/backoffice/internal/queue"
    "github.com/iliyamo/backoffice/internal/repository"
)

// memAccounts is an in-memory AccountStore.
type memAccounts struct {
    mu   sync.Mutex
    rows map[uint64]model.Account
    next uint64
}

func newMemAccounts() *memAccounts { return &memAccounts{rows: map[uint64]model.Account{}} }

func (m *memAccounts) Create(_ context.Context, a *model.Account) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, r := range m.rows {
        if r.Email == a.Email {
            return repository.ErrEmailExists
        }
        if r.Username == a.Username {
            return repository.ErrUsernameExists
        }
    }
    m.next++
    a.ID = m.next
    m.rows[a.ID] = *a
    return nil
}

func (m *memAccounts) find(pred func(model.Account) bool) (model.Account, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, r := range m.rows {
        if pred(r) {
            return r, nil
        }
    }
    return model.Account{}, repository.ErrAccountMissing
}

func (m *memAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
    return m.find(func(a model.Account) bool { return a.ID == id })
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
    email = strings.ToLower(email)
    return m.find(func(a model.Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (model.Account, error) {
    return m.find(func(a model.Account) bool { return a.Username == username })
}

func (m *memAccounts) UpdatePassword(_ context.Context, id uint64, oldHash, newHash string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    a, ok := m.rows[id]
    if !ok || a.PasswordHash != oldHash {
        return repository.ErrAccountMissing
    }
    a.PasswordHash = newHash
    m.rows[id] = a
    return nil
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, n queue.Notification) error {
    return m.Called(ctx, n).Error(0)
}
