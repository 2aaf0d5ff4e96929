package services

import (
	"context"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
)

// AdminService is the read-only administrator view over all users and all
// transactions. Every call needs the admin role; the client refuses it
// locally otherwise.
type AdminService interface {
	Users(ctx context.Context) ([]models.User, error)
	User(ctx context.Context, id int64) (models.User, error)
	Transactions(ctx context.Context) ([]models.Transaction, error)
}

type adminService struct {
	client client.Client
	store  *session.Store
	log    logging.Logger
}

func NewAdminService(c client.Client, store *session.Store, log logging.Logger) AdminService {
	return &adminService{client: c, store: store, log: log}
}

func (s *adminService) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return nil, expireOn(ctx, s.store, s.log, err)
	}
	return users, nil
}

func (s *adminService) User(ctx context.Context, id int64) (models.User, error) {
	u, err := s.client.GetUser(ctx, id)
	if err != nil {
		return models.User{}, expireOn(ctx, s.store, s.log, err)
	}
	return u, nil
}

func (s *adminService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.client.ListAllTransactions(ctx)
	if err != nil {
		return nil, expireOn(ctx, s.store, s.log, err)
	}
	return txs, nil
}
