package postgres

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// DefaultChunkLimit caps RetrieveContext when the caller passes no limit.
const DefaultChunkLimit = 8

// DocumentStore reads document chunks written by the ingestion pipeline and
// ranks them with PostgreSQL full-text search.
type DocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDocumentStore creates a document store over db.
func NewDocumentStore(db store.DBTX, log *slog.Logger) *DocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &DocumentStore{
		db:     db,
		logger: log.With(slog.String("component", "document_store")),
	}
}

var _ generation.DocumentRetriever = (*DocumentStore)(nil)

// RetrieveContext returns up to limit chunk texts from the user's documents,
// best full-text matches for query first. When nothing matches the query the
// leading chunks of each document are returned instead, so a vague topic
// still gets grounded. An empty result means the documents have no chunks.
func (s *DocumentStore) RetrieveContext(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, query string, limit int) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(documentIDs) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultChunkLimit
	}

	ids := make([]string, len(documentIDs))
	for i, id := range documentIDs {
		ids[i] = id.String()
	}

	chunks, err := s.query(ctx, `
		SELECT content
		FROM document_chunks
		WHERE user_id = $1
		  AND document_id = ANY($2::uuid[])
		  AND search_vector @@ websearch_to_tsquery('simple', $3)
		ORDER BY ts_rank(search_vector, websearch_to_tsquery('simple', $3)) DESC, chunk_index
		LIMIT $4`,
		userID, ids, strings.TrimSpace(query), limit,
	)
	if err != nil {
		log.Error("full-text chunk retrieval failed",
			slog.String("error", redact.Error(err)),
			slog.Int("documents", len(documentIDs)))
		return nil, MapError(err)
	}
	if len(chunks) > 0 {
		return chunks, nil
	}

	chunks, err = s.query(ctx, `
		SELECT content
		FROM document_chunks
		WHERE user_id = $1
		  AND document_id = ANY($2::uuid[])
		ORDER BY chunk_index, document_id
		LIMIT $3`,
		userID, ids, limit,
	)
	if err != nil {
		log.Error("chunk retrieval failed",
			slog.String("error", redact.Error(err)),
			slog.Int("documents", len(documentIDs)))
		return nil, MapError(err)
	}

	log.Debug("no chunk matched the query, using leading chunks",
		slog.Int("chunks", len(chunks)))
	return chunks, nil
}

func (s *DocumentStore) query(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		out = append(out, content)
	}
	return out, rows.Err()
}
