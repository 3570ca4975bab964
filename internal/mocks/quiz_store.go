package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// StatusUpdate records one UpdateStatus call.
type StatusUpdate struct {
	QuizID       uuid.UUID
	Status       domain.QuizStatus
	ErrorMessage *string
}

// MockQuizStore implements store.QuizStore in memory.
type MockQuizStore struct {
	CreateFn           func(ctx context.Context, quiz *domain.Quiz) error
	GetByIDFn          func(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
	UpdateStatusFn     func(ctx context.Context, id uuid.UUID, status domain.QuizStatus, errMsg *string) error
	SaveArchitectureFn func(ctx context.Context, id uuid.UUID, architecture string) error
	DeleteFn           func(ctx context.Context, id uuid.UUID) error

	mu            sync.Mutex
	quizzes       map[uuid.UUID]domain.Quiz
	statusUpdates []StatusUpdate
	architectures int
}

// NewMockQuizStore creates an empty store.
func NewMockQuizStore() *MockQuizStore {
	return &MockQuizStore{quizzes: make(map[uuid.UUID]domain.Quiz)}
}

var _ store.QuizStore = (*MockQuizStore)(nil)

// Put stores a copy of quiz without recording a call.
func (m *MockQuizStore) Put(quiz *domain.Quiz) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[quiz.ID] = copyQuiz(*quiz)
}

// Get returns the stored quiz, or nil.
func (m *MockQuizStore) Get(id uuid.UUID) *domain.Quiz {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return nil
	}
	out := copyQuiz(q)
	return &out
}

// StatusUpdates returns every successful UpdateStatus call in order.
func (m *MockQuizStore) StatusUpdates() []StatusUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StatusUpdate(nil), m.statusUpdates...)
}

// Statuses returns just the statuses of StatusUpdates.
func (m *MockQuizStore) Statuses() []domain.QuizStatus {
	updates := m.StatusUpdates()
	out := make([]domain.QuizStatus, len(updates))
	for i, u := range updates {
		out[i] = u.Status
	}
	return out
}

// ArchitectureWrites counts successful SaveArchitecture calls.
func (m *MockQuizStore) ArchitectureWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.architectures
}

// Create implements store.QuizStore.
func (m *MockQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, quiz)
	}
	if err := quiz.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[quiz.ID]; ok {
		return store.ErrDuplicate
	}
	m.quizzes[quiz.ID] = copyQuiz(*quiz)
	return nil
}

// GetByID implements store.QuizStore.
func (m *MockQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if q := m.Get(id); q != nil {
		return q, nil
	}
	return nil, store.ErrQuizNotFound
}

// ListByUser implements store.QuizStore.
func (m *MockQuizStore) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error) {
	m.mu.Lock()
	var out []*domain.Quiz
	for _, q := range m.quizzes {
		if q.UserID == userID {
			c := copyQuiz(q)
			out = append(out, &c)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*domain.Quiz{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus implements store.QuizStore.
func (m *MockQuizStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuizStatus, errMsg *string) error {
	if m.UpdateStatusFn != nil {
		if err := m.UpdateStatusFn(ctx, id, status, errMsg); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return store.ErrQuizNotFound
	}
	q.Status = status
	q.ErrorMessage = copyString(errMsg)
	q.UpdatedAt = time.Now().UTC()
	m.quizzes[id] = q
	m.statusUpdates = append(m.statusUpdates, StatusUpdate{QuizID: id, Status: status, ErrorMessage: copyString(errMsg)})
	return nil
}

// SaveArchitecture implements store.QuizStore.
func (m *MockQuizStore) SaveArchitecture(ctx context.Context, id uuid.UUID, architecture string) error {
	if m.SaveArchitectureFn != nil {
		if err := m.SaveArchitectureFn(ctx, id, architecture); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return store.ErrQuizNotFound
	}
	q.Architecture = &architecture
	m.quizzes[id] = q
	m.architectures++
	return nil
}

// Delete implements store.QuizStore.
func (m *MockQuizStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return store.ErrQuizNotFound
	}
	delete(m.quizzes, id)
	return nil
}

// WithTx returns the same store; the fake has no transactions.
func (m *MockQuizStore) WithTx(*sql.Tx) store.QuizStore {
	return m
}

func copyQuiz(q domain.Quiz) domain.Quiz {
	q.Architecture = copyString(q.Architecture)
	q.ErrorMessage = copyString(q.ErrorMessage)
	q.Params.DocumentIDs = append([]uuid.UUID(nil), q.Params.DocumentIDs...)
	q.Params.Languages = append([]string(nil), q.Params.Languages...)
	q.Params.QuestionTypes = append([]domain.QuestionType(nil), q.Params.QuestionTypes...)
	return q
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
