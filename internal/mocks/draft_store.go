package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// MockDraftStore implements store.DraftStore in memory. Snapshots are kept
// in insertion order, which stands in for the database sequence.
type MockDraftStore struct {
	CreateFn    func(ctx context.Context, draft *domain.Draft) error
	GetLatestFn func(ctx context.Context, quizID uuid.UUID) (*domain.Draft, error)

	mu     sync.Mutex
	drafts map[uuid.UUID][]domain.Draft
}

// NewMockDraftStore creates an empty store.
func NewMockDraftStore() *MockDraftStore {
	return &MockDraftStore{drafts: make(map[uuid.UUID][]domain.Draft)}
}

var _ store.DraftStore = (*MockDraftStore)(nil)

// Count returns the number of snapshots stored for quizID.
func (m *MockDraftStore) Count(quizID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts[quizID])
}

// Create implements store.DraftStore.
func (m *MockDraftStore) Create(ctx context.Context, draft *domain.Draft) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, draft); err != nil {
			return err
		}
	}
	if err := draft.Content.Validate(); err != nil {
		return err
	}
	content, err := draft.Content.Clone()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *draft
	stored.Content = content
	m.drafts[draft.QuizID] = append(m.drafts[draft.QuizID], stored)
	return nil
}

// GetLatest implements store.DraftStore.
func (m *MockDraftStore) GetLatest(ctx context.Context, quizID uuid.UUID) (*domain.Draft, error) {
	if m.GetLatestFn != nil {
		return m.GetLatestFn(ctx, quizID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.drafts[quizID]
	if len(list) == 0 {
		return nil, store.ErrDraftNotFound
	}
	return cloneDraft(list[len(list)-1])
}

// ListByQuiz implements store.DraftStore.
func (m *MockDraftStore) ListByQuiz(_ context.Context, quizID uuid.UUID, limit int) ([]*domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.drafts[quizID]
	out := make([]*domain.Draft, 0, len(list))
	for i := len(list) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		d, err := cloneDraft(list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// WithTx returns the same store.
func (m *MockDraftStore) WithTx(*sql.Tx) store.DraftStore {
	return m
}

func cloneDraft(d domain.Draft) (*domain.Draft, error) {
	content, err := d.Content.Clone()
	if err != nil {
		return nil, err
	}
	d.Content = content
	return &d, nil
}
