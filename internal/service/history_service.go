package service

import (
	"context"

	"anoa.com/lumirarewards/internal/model"
	"anoa.com/lumirarewards/internal/repository"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type HistoryService interface {
	// History returns one page of a user's transactions, newest first.
	// source is an optional filter. hasMore is derived by probing one row
	// past the page, avoiding a count query.
	History(ctx context.Context, userID uuid.UUID, source string, page, pageSize int) ([]model.Transaction, bool, error)
}

type historyService struct {
	txnRepo repository.TransactionRepository
}

func NewHistoryService(txnRepo repository.TransactionRepository) HistoryService {
	return &historyService{txnRepo: txnRepo}
}

func (s *historyService) History(ctx context.Context, userID uuid.UUID, source string, page, pageSize int) ([]model.Transaction, bool, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	offset := (page - 1) * pageSize
	txns, err := s.txnRepo.ListByUser(userID, source, offset, pageSize+1)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(txns) > pageSize
	if hasMore {
		txns = txns[:pageSize]
	}
	return txns, hasMore, nil
}
