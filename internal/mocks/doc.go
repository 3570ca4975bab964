// Package mocks provides centralized fakes for the store and generation
// interfaces.
//
// Each fake keeps an in-memory default behavior and exposes function fields
// that override individual methods:
//
//	quizzes := mocks.NewMockQuizStore()
//	quizzes.UpdateStatusFn = func(ctx context.Context, id uuid.UUID, s domain.QuizStatus, msg *string) error {
//	    return errors.New("db down")
//	}
//
// Calls are recorded so tests can assert on what the code under test did.
package mocks
