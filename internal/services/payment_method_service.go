package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/storage"

	"github.com/google/uuid"
)

type PaymentMethodService struct {
	repo *storage.Repository
}

func NewPaymentMethodService(repo *storage.Repository) *PaymentMethodService {
	return &PaymentMethodService{repo: repo}
}

// List returns the user's own methods ordered by name.
func (s *PaymentMethodService) List(ctx context.Context) ([]core.PaymentMethod, error) {
	methods, err := s.repo.PaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
	return methods, nil
}

// CreditCards returns the user's credit-type methods.
func (s *PaymentMethodService) CreditCards(ctx context.Context) ([]core.PaymentMethod, error) {
	methods, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return CreditCards(methods), nil
}

func (s *PaymentMethodService) Save(ctx context.Context, pm core.PaymentMethod) (core.PaymentMethod, error) {
	if err := pm.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	if pm.ID == "" {
		pm.ID = uuid.NewString()
	}
	if err := s.repo.SavePaymentMethod(ctx, pm); err != nil {
		return core.PaymentMethod{}, fmt.Errorf("save payment method: %w", err)
	}
	return pm, nil
}

// SetDefault makes id the only default method, atomically.
func (s *PaymentMethodService) SetDefault(ctx context.Context, id string) error {
	err := s.repo.SetDefaultPaymentMethod(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrPaymentMethodNotFound, id)
	}
	return err
}

// Resolver returns a resolver over the user's current methods.
func (s *PaymentMethodService) Resolver(ctx context.Context) (*PaymentMethodResolver, error) {
	methods, err := s.repo.PaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	return NewPaymentMethodResolver(methods), nil
}

// CreditCards filters methods down to credit cards, preserving order.
func CreditCards(methods []core.PaymentMethod) []core.PaymentMethod {
	out := make([]core.PaymentMethod, 0, len(methods))
	for _, pm := range methods {
		if pm.IsCredit() {
			out = append(out, pm)
		}
	}
	return out
}
