// Package summary builds render-ready summaries of catalog tables and
// dashboards.
package summary

import (
	"context"
	"fmt"

	"catalog-summary/internal/domain"
)

// Service resolves entities by FQN and runs them through a PanelController.
type Service struct {
	entities domain.EntityFetcher
	deps     Collaborators
}

// NewService creates a new Service.
func NewService(entities domain.EntityFetcher, deps Collaborators) *Service {
	return &Service{entities: entities, deps: deps}
}

// NewController creates an idle controller sharing the service's collaborators.
func (s *Service) NewController(entityType domain.EntityType) *PanelController {
	return NewPanelController(entityType, s.deps)
}

// TableSummary returns the complete summary of the table fqn for dctx.
func (s *Service) TableSummary(ctx context.Context, fqn string, dctx domain.DisplayContext) (*domain.ViewModel, error) {
	t, err := s.table(ctx, fqn)
	if err != nil {
		return nil, err
	}
	c := s.NewController(domain.EntityTypeTable)
	if err := c.BindTable(ctx, t); err != nil {
		return nil, err
	}
	return s.complete(ctx, c, dctx)
}

// DashboardSummary returns the complete summary of the dashboard fqn for dctx.
func (s *Service) DashboardSummary(ctx context.Context, fqn string, dctx domain.DisplayContext) (*domain.ViewModel, error) {
	if fqn == "" {
		return nil, domain.ErrValidation("dashboard FQN is required")
	}
	d, err := s.entities.GetDashboard(ctx, fqn)
	if err != nil {
		return nil, fmt.Errorf("get dashboard %q: %w", fqn, err)
	}
	c := s.NewController(domain.EntityTypeDashboard)
	if err := c.BindDashboard(ctx, d); err != nil {
		return nil, err
	}
	return s.complete(ctx, c, dctx)
}

// StreamTable binds the table fqn and calls send with every view the
// controller produces, ending after the complete view. It returns early
// with the error of send or ctx.
func (s *Service) StreamTable(ctx context.Context, fqn string, dctx domain.DisplayContext, send func(domain.ViewModel) error) error {
	t, err := s.table(ctx, fqn)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)

	updates := make(chan domain.ViewModel, 4)
	c := s.NewController(domain.EntityTypeTable)
	unsubscribe := c.OnChange(dctx, func(vm domain.ViewModel) {
		select {
		case updates <- vm:
		case <-ctx.Done():
		}
	})
	// cancel first so a listener blocked on updates releases the emit lock.
	defer func() {
		cancel()
		unsubscribe()
		c.Unbind()
	}()

	if err := c.BindTable(ctx, t); err != nil {
		return err
	}

	for {
		select {
		case vm := <-updates:
			if err := send(vm); err != nil {
				return err
			}
			if vm.Phase == domain.PhaseComplete {
				s.deps.Metrics.SummaryBuilt(string(domain.EntityTypeTable), dctx.String())
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Service) table(ctx context.Context, fqn string) (*domain.Table, error) {
	if fqn == "" {
		return nil, domain.ErrValidation("table FQN is required")
	}
	t, err := s.entities.GetTable(ctx, fqn)
	if err != nil {
		return nil, fmt.Errorf("get table %q: %w", fqn, err)
	}
	return t, nil
}

func (s *Service) complete(ctx context.Context, c *PanelController, dctx domain.DisplayContext) (*domain.ViewModel, error) {
	if err := c.Wait(ctx); err != nil {
		c.Unbind()
		return nil, err
	}
	vm := c.View(dctx)
	s.deps.Metrics.SummaryBuilt(string(c.EntityType()), dctx.String())
	return &vm, nil
}
