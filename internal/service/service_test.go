package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hanseol/dental_shop/internal/db"
	"github.com/hanseol/dental_shop/internal/models"
	"github.com/hanseol/dental_shop/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return repo.NewGormRepo(gdb)
}

type stubLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	declined bool
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: map[string]bool{}}
}

func (l *stubLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.declined || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *stubLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *stubPublisher) Publish(_ context.Context, _, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := event.(map[string]any); ok {
		p.events = append(p.events, m)
	}
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func (p *stubPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		if s, ok := e["type"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func createProduct(t *testing.T, r *repo.GormRepo, name string, price int64, stock uint) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " desc", Price: price, Stock: stock}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func guestOwner(token string) Owner { return Owner{GuestToken: &token} }

func userOwner(userID uint) Owner { u := userID; return Owner{UserID: &u} }
