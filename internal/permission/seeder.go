package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNotFound = errors.New("permission not found")

// Record is a persisted permission row.
type Record struct {
	ID             string
	Name           string
	Code           Code
	Action         Action
	AllowedActions []Action
}

type CatalogRepository interface {
	FindByCodeAndAction(ctx context.Context, code Code, action Action) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]Record, error)
}

type SeedResult struct {
	Created int
	Updated int
}

// Drift describes a stored row that disagrees with the policy table.
type Drift struct {
	Code   Code
	Action Action
	Reason string
}

type Seeder struct {
	repo   CatalogRepository
	logger *slog.Logger
}

func NewSeeder(repo CatalogRepository, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{repo: repo, logger: logger}
}

// Seed upserts one row per code, keyed by (code, primary action).
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	for _, code := range AllCodes() {
		actions := code.AllowedActions()
		primary := PrimaryAction(actions)

		existing, err := s.repo.FindByCodeAndAction(ctx, code, primary)
		switch {
		case errors.Is(err, ErrNotFound):
			rec := &Record{Name: code.Name(), Code: code, Action: primary, AllowedActions: actions}
			if err := s.repo.Create(ctx, rec); err != nil {
				return result, fmt.Errorf("create permission %s: %w", code, err)
			}
			result.Created++
		case err != nil:
			return result, fmt.Errorf("find permission %s: %w", code, err)
		default:
			existing.Name = code.Name()
			existing.AllowedActions = actions
			if err := s.repo.Update(ctx, existing); err != nil {
				return result, fmt.Errorf("update permission %s: %w", code, err)
			}
			result.Updated++
		}
	}

	s.logger.Info("permissions seeded", "created", result.Created, "updated", result.Updated)
	return result, nil
}

// Verify reports stored rows that drift from the policy table and codes
// that have no row at all.
func (s *Seeder) Verify(ctx context.Context) ([]Drift, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}

	var drifts []Drift
	stored := make(map[Code]bool, len(records))
	for _, rec := range records {
		stored[rec.Code] = true
		if err := ValidateAllowedActions(rec.Code, rec.AllowedActions); err != nil {
			drifts = append(drifts, Drift{Code: rec.Code, Action: rec.Action, Reason: err.Error()})
			continue
		}
		if primary := rec.Code.PrimaryAction(); rec.Action != primary {
			drifts = append(drifts, Drift{Code: rec.Code, Action: rec.Action, Reason: fmt.Sprintf("action should be %q", primary)})
		}
	}
	for _, code := range AllCodes() {
		if !stored[code] {
			drifts = append(drifts, Drift{Code: code, Action: code.PrimaryAction(), Reason: "not seeded"})
		}
	}
	return drifts, nil
}
