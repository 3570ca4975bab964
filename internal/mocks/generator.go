package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
)

// MockArchitect implements generation.Architect.
type MockArchitect struct {
	DesignArchitectureFn func(ctx context.Context, req generation.ArchitectureRequest) (string, error)

	// Architecture and Err are returned when DesignArchitectureFn is nil.
	Architecture string
	Err          error

	mu    sync.Mutex
	calls []generation.ArchitectureRequest
}

var _ generation.Architect = (*MockArchitect)(nil)

// DesignArchitecture implements generation.Architect.
func (m *MockArchitect) DesignArchitecture(ctx context.Context, req generation.ArchitectureRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.DesignArchitectureFn != nil {
		return m.DesignArchitectureFn(ctx, req)
	}
	return m.Architecture, m.Err
}

// Calls returns the number of DesignArchitecture calls.
func (m *MockArchitect) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockBuilder implements generation.Builder.
type MockBuilder struct {
	BuildQuestionsFn func(ctx context.Context, req generation.BuildRequest) (*domain.DraftContent, error)

	Content *domain.DraftContent
	Err     error

	mu       sync.Mutex
	requests []generation.BuildRequest
}

var _ generation.Builder = (*MockBuilder)(nil)

// BuildQuestions implements generation.Builder.
func (m *MockBuilder) BuildQuestions(ctx context.Context, req generation.BuildRequest) (*domain.DraftContent, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.BuildQuestionsFn != nil {
		return m.BuildQuestionsFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Content == nil {
		return nil, nil
	}
	c, err := m.Content.Clone()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Requests returns the recorded build requests.
func (m *MockBuilder) Requests() []generation.BuildRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.BuildRequest(nil), m.requests...)
}

// MockEditor implements generation.Editor.
type MockEditor struct {
	EditScopedFn func(ctx context.Context, req generation.EditRequest) (*generation.EditFragment, error)

	Fragment *generation.EditFragment
	Err      error

	mu       sync.Mutex
	requests []generation.EditRequest
}

var _ generation.Editor = (*MockEditor)(nil)

// EditScoped implements generation.Editor.
func (m *MockEditor) EditScoped(ctx context.Context, req generation.EditRequest) (*generation.EditFragment, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.EditScopedFn != nil {
		return m.EditScopedFn(ctx, req)
	}
	return m.Fragment, m.Err
}

// Requests returns the recorded edit requests.
func (m *MockEditor) Requests() []generation.EditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.EditRequest(nil), m.requests...)
}

// MockTranslator implements generation.Translator.
type MockTranslator struct {
	TranslateFn func(ctx context.Context, languages []string, content domain.DraftContent) (map[string]domain.DraftContent, error)

	mu    sync.Mutex
	calls [][]string
}

var _ generation.Translator = (*MockTranslator)(nil)

// Translate implements generation.Translator. Without TranslateFn it echoes
// the content once per language.
func (m *MockTranslator) Translate(ctx context.Context, languages []string, content domain.DraftContent) (map[string]domain.DraftContent, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), languages...))
	m.mu.Unlock()

	if m.TranslateFn != nil {
		return m.TranslateFn(ctx, languages, content)
	}
	out := make(map[string]domain.DraftContent, len(languages))
	for _, lang := range languages {
		c, err := content.Clone()
		if err != nil {
			return nil, err
		}
		out[lang] = c
	}
	return out, nil
}

// Calls returns the language lists passed to Translate.
func (m *MockTranslator) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

// MockRetriever implements generation.DocumentRetriever.
type MockRetriever struct {
	RetrieveContextFn func(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, query string, limit int) ([]string, error)

	Chunks []string
	Err    error
}

var _ generation.DocumentRetriever = (*MockRetriever)(nil)

// RetrieveContext implements generation.DocumentRetriever.
func (m *MockRetriever) RetrieveContext(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, query string, limit int) ([]string, error) {
	if m.RetrieveContextFn != nil {
		return m.RetrieveContextFn(ctx, userID, documentIDs, query, limit)
	}
	return m.Chunks, m.Err
}
