// Package topology merges tables into groups and splits them back.
package topology

import (
	"context"
	"fmt"
	"slices"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

type Service struct {
	orders interfaces.OrderStore
	tables interfaces.TableStore
	guard  interfaces.TableGuard
	logger logger.Logger
}

func NewService(orders interfaces.OrderStore, tables interfaces.TableStore, guard interfaces.TableGuard, logger logger.Logger) *Service {
	return &Service{
		orders: orders,
		tables: tables,
		guard:  guard,
		logger: logger,
	}
}

// Merge absorbs memberIDs into principalID. Every participant must be
// Available or Reserved and outside any existing group.
func (s *Service) Merge(ctx context.Context, principalID string, memberIDs []string) (*domain.Table, error) {
	if err := validateMerge(principalID, memberIDs); err != nil {
		return nil, err
	}

	all := append([]string{principalID}, memberIDs...)

	var merged *domain.Table
	err := s.guard.WithTables(ctx, all, func() error {
		for _, id := range all {
			t, err := s.tables.Get(ctx, id)
			if err != nil {
				return err
			}
			if !t.CanJoin() {
				return fmt.Errorf("%w: table %s is %s", domain.ErrTableUnavailable, t.Number, t.Status)
			}
		}

		if err := s.tables.SetMergeRelation(ctx, principalID, memberIDs); err != nil {
			return err
		}

		var err error
		merged, err = s.tables.Get(ctx, principalID)
		return err
	})
	if err != nil {
		s.logger.Error("merge_failed", "Failed to merge tables", "", map[string]interface{}{
			"principal": principalID,
			"members":   memberIDs,
		}, err)
		return nil, err
	}

	s.logger.Info("tables_merged", fmt.Sprintf("Tables merged into %s", merged.Number), "", map[string]interface{}{
		"principal": principalID,
		"members":   memberIDs,
	})
	return merged, nil
}

// Split dissolves the group led by principalID and returns every former
// participant, principal first. A group with active orders cannot be split.
func (s *Service) Split(ctx context.Context, principalID string) ([]*domain.Table, error) {
	current, err := s.tables.Get(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !current.IsMergeTarget() {
		return nil, notCombined(current)
	}

	participants := append([]string{principalID}, current.MergedMembers...)

	var released []*domain.Table
	err = s.guard.WithTables(ctx, participants, func() error {
		principal, err := s.tables.Get(ctx, principalID)
		if err != nil {
			return err
		}
		if !principal.IsMergeTarget() {
			return notCombined(principal)
		}
		if !slices.Equal(principal.MergedMembers, current.MergedMembers) {
			return fmt.Errorf("%w: group %s changed during split", domain.ErrNotCombined, principal.Number)
		}

		active, err := s.orders.ListActiveByTable(ctx, principalID)
		if err != nil {
			return fmt.Errorf("failed to list active orders: %w", err)
		}
		if len(active) > 0 {
			return fmt.Errorf("%w: table %s has %d active orders", domain.ErrTableOccupied, principal.Number, len(active))
		}

		memberIDs, err := s.tables.ClearMergeRelation(ctx, principalID)
		if err != nil {
			return err
		}

		for _, id := range append([]string{principalID}, memberIDs...) {
			t, err := s.tables.Get(ctx, id)
			if err != nil {
				return err
			}
			released = append(released, t)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("split_failed", "Failed to split tables", "", map[string]interface{}{
			"principal": principalID,
		}, err)
		return nil, err
	}

	s.logger.Info("tables_split", fmt.Sprintf("Table group %s split", current.Number), "", map[string]interface{}{
		"principal": principalID,
		"members":   current.MergedMembers,
	})
	return released, nil
}

func validateMerge(principalID string, memberIDs []string) error {
	if principalID == "" {
		return fmt.Errorf("%w: principal table required", domain.ErrInvalidMerge)
	}
	if len(memberIDs) == 0 {
		return fmt.Errorf("%w: at least one table to merge required", domain.ErrInvalidMerge)
	}

	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if id == "" {
			return fmt.Errorf("%w: empty table id", domain.ErrInvalidMerge)
		}
		if id == principalID {
			return fmt.Errorf("%w: principal table listed among merged tables", domain.ErrInvalidMerge)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: table %s listed twice", domain.ErrInvalidMerge, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func notCombined(t *domain.Table) error {
	if t.IsAbsorbed() {
		return fmt.Errorf("%w: table %s is merged into %s, split from the principal", domain.ErrNotCombined, t.Number, t.MergedInto)
	}
	return fmt.Errorf("%w: %s", domain.ErrNotCombined, t.Number)
}
