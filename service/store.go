package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/model"
)

// DocumentStore is the key-value result store shared by both pipelines.
// Everything is keyed by document id. Status changes go through
// AdvanceStatus so a stage transition is a single conditional update.
type DocumentStore interface {
	SaveDocument(doc *model.Document) error
	GetDocument(id string) (*model.Document, error)
	ListByStatus(status string, limit int) ([]*model.Document, error)
	// AdvanceStatus moves a document from one lifecycle state to another.
	// It returns false without error when the document is not currently in
	// the expected state, which makes concurrent stage runs safe.
	AdvanceStatus(id, from, to string) (bool, error)
	SetFailed(id, errMsg string) error

	SaveClauses(documentID string, clauses []model.Clause) error
	GetClauses(documentID string) ([]model.Clause, error)
	SaveSuggestions(documentID string, suggestions []model.Suggestion) error
	GetSuggestions(documentID string) ([]model.Suggestion, error)
	SaveReport(report *model.Report) error
	GetReport(documentID string) (*model.Report, error)
}

// MemoryStore is an in-memory DocumentStore. The sqlite store is the
// persistent option; this one backs tests and single-shot CLI runs.
type MemoryStore struct {
	mu           sync.RWMutex
	documents    map[string]*model.Document
	clauses      map[string][]model.Clause
	suggestions  map[string][]model.Suggestion
	reports      map[string]*model.Report
	maxDocuments int // 0 = unlimited
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(cfg *config.StoreConfig) *MemoryStore {
	maxDocuments := 0
	if cfg != nil && cfg.MaxDocuments > 0 {
		maxDocuments = cfg.MaxDocuments
	}
	return &MemoryStore{
		documents:    make(map[string]*model.Document),
		clauses:      make(map[string][]model.Clause),
		suggestions:  make(map[string][]model.Suggestion),
		reports:      make(map[string]*model.Report),
		maxDocuments: maxDocuments,
	}
}

func (s *MemoryStore) SaveDocument(doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *doc
	cp.UpdatedAt = time.Now()
	s.documents[doc.ID] = &cp

	s.cleanupIfNeeded()
	return nil
}

func (s *MemoryStore) GetDocument(id string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *MemoryStore) ListByStatus(status string, limit int) ([]*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Document
	for _, doc := range s.documents {
		if doc.Status == status {
			cp := *doc
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) AdvanceStatus(id, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return false, ErrNotFound
	}
	if doc.Status != from {
		return false, nil
	}
	doc.Status = to
	doc.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) SetFailed(id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = model.StatusFailed
	doc.ErrorMsg = errMsg
	doc.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) SaveClauses(documentID string, clauses []model.Clause) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clauses[documentID] = append([]model.Clause(nil), clauses...)
	return nil
}

func (s *MemoryStore) GetClauses(documentID string) ([]model.Clause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Clause(nil), s.clauses[documentID]...), nil
}

func (s *MemoryStore) SaveSuggestions(documentID string, suggestions []model.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestions[documentID] = append([]model.Suggestion(nil), suggestions...)
	return nil
}

func (s *MemoryStore) GetSuggestions(documentID string) ([]model.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Suggestion(nil), s.suggestions[documentID]...), nil
}

func (s *MemoryStore) SaveReport(report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *report
	s.reports[report.DocumentID] = &cp
	return nil
}

func (s *MemoryStore) GetReport(documentID string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *report
	return &cp, nil
}

// cleanupIfNeeded removes oldest documents if the store exceeds the cap.
// Must be called with lock held.
func (s *MemoryStore) cleanupIfNeeded() {
	if s.maxDocuments <= 0 {
		return
	}
	if len(s.documents) <= s.maxDocuments {
		return
	}

	docs := make([]*model.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	removeCount := len(docs) - s.maxDocuments
	for i := 0; i < removeCount; i++ {
		slog.Info("auto-cleaning old document",
			"document_id", docs[i].ID,
			"created_at", docs[i].CreatedAt,
		)
		delete(s.documents, docs[i].ID)
		delete(s.clauses, docs[i].ID)
		delete(s.suggestions, docs[i].ID)
		delete(s.reports, docs[i].ID)
	}
}

// Count returns the number of documents in the store.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
