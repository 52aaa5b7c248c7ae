// Package progress computes read-only completion figures for boards and
// checklists.
package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/board-planner/internal/domain"
)

type countRepo interface {
	CountByLaneStatus(ctx context.Context, projectID uuid.UUID) ([]domain.StatusCount, error)
	CountChecklist(ctx context.Context, cardID uuid.UUID) (domain.ChecklistCount, error)
	CountChecklistsByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ChecklistCount, error)
}

type cardRepo interface {
	Get(ctx context.Context, projectID, cardID uuid.UUID) (domain.Card, error)
}

type txManager interface {
	RunInReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides progress queries.
type Service struct {
	counts countRepo
	cards  cardRepo
	tx     txManager
	log    *slog.Logger
}

// NewService creates a new progress service.
func NewService(log *slog.Logger, counts countRepo, cards cardRepo, tx txManager) *Service {
	return &Service{
		counts: counts,
		cards:  cards,
		tx:     tx,
		log:    log.With("service", "progress"),
	}
}

// BoardProgress returns per-lane status counts and completion rates of a
// project.
func (s *Service) BoardProgress(ctx context.Context, projectID uuid.UUID) (domain.BoardProgress, error) {
	var out domain.BoardProgress
	err := s.tx.RunInReadOnlyTx(ctx, func(txCtx context.Context) error {
		counts, err := s.counts.CountByLaneStatus(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("count cards: %w", err)
		}
		out = buildBoard(projectID, counts)
		return nil
	})
	if err != nil {
		return domain.BoardProgress{}, err
	}
	return out, nil
}

// CardProgress returns the checklist completion of an alive card.
func (s *Service) CardProgress(ctx context.Context, projectID, cardID uuid.UUID) (domain.ChecklistProgress, error) {
	var out domain.ChecklistProgress
	err := s.tx.RunInReadOnlyTx(ctx, func(txCtx context.Context) error {
		c, err := s.cards.Get(txCtx, projectID, cardID)
		if err != nil {
			return fmt.Errorf("get card: %w", err)
		}
		if !c.IsAlive() {
			return fmt.Errorf("card %s: %w", cardID, domain.ErrNotFound)
		}

		count, err := s.counts.CountChecklist(txCtx, cardID)
		if err != nil {
			return fmt.Errorf("count checklist: %w", err)
		}
		out = checklistProgress(count)
		return nil
	})
	if err != nil {
		return domain.ChecklistProgress{}, err
	}
	return out, nil
}

// Overview loads board progress and the checklist progress of every alive
// card concurrently. Each half reads its own snapshot.
func (s *Service) Overview(ctx context.Context, projectID uuid.UUID) (domain.ProjectOverview, error) {
	var (
		board      domain.BoardProgress
		checklists []domain.ChecklistProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board, err = s.BoardProgress(gctx, projectID)
		return err
	})
	g.Go(func() error {
		return s.tx.RunInReadOnlyTx(gctx, func(txCtx context.Context) error {
			counts, err := s.counts.CountChecklistsByProject(txCtx, projectID)
			if err != nil {
				return fmt.Errorf("count checklists: %w", err)
			}
			checklists = make([]domain.ChecklistProgress, len(counts))
			for i, c := range counts {
				checklists[i] = checklistProgress(c)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return domain.ProjectOverview{}, err
	}

	s.log.DebugContext(ctx, "overview computed",
		slog.String("project_id", projectID.String()),
		slog.Int("lanes", len(board.Lanes)),
		slog.Int("cards", len(checklists)),
	)

	return domain.ProjectOverview{Board: board, Checklists: checklists}, nil
}

// buildBoard folds counts sorted by lane into per-lane progress.
func buildBoard(projectID uuid.UUID, counts []domain.StatusCount) domain.BoardProgress {
	board := domain.BoardProgress{ProjectID: projectID, Lanes: []domain.LaneProgress{}}

	for _, c := range counts {
		n := len(board.Lanes)
		if n == 0 || board.Lanes[n-1].Lane != c.Lane {
			byStatus := make(map[domain.CardStatus]int, len(domain.CardStatuses()))
			for _, st := range domain.CardStatuses() {
				byStatus[st] = 0
			}
			board.Lanes = append(board.Lanes, domain.LaneProgress{Lane: c.Lane, ByStatus: byStatus})
		}

		lane := &board.Lanes[len(board.Lanes)-1]
		lane.ByStatus[c.Status] += c.Count
		lane.Total += c.Count
		if c.Status == domain.CardStatusDone {
			lane.Done += c.Count
		}
	}

	for i := range board.Lanes {
		lane := &board.Lanes[i]
		lane.Rate = domain.CompletionRate(lane.Done, lane.Total)
		board.Total += lane.Total
		board.Done += lane.Done
	}
	board.Rate = domain.CompletionRate(board.Done, board.Total)
	return board
}

func checklistProgress(c domain.ChecklistCount) domain.ChecklistProgress {
	return domain.ChecklistProgress{
		CardID: c.CardID,
		Total:  c.Total,
		Done:   c.Done,
		Rate:   domain.CompletionRate(c.Done, c.Total),
	}
}
