package vehicle

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Vehicle, error)
	List(ctx context.Context) ([]Vehicle, error)
}

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id int64) (*Vehicle, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Vehicle, error) {
	return s.store.List(ctx)
}
