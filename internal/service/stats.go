package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arzmania-cards/internal/catalog"
	"arzmania-cards/internal/constants"
	"arzmania-cards/internal/domain"
	"arzmania-cards/internal/ledger"
	"arzmania-cards/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	ParticipantID int64
	TotalDuels    int
	Wins          int
	Losses        int
	// WinRate is a percentage in [0, 100].
	WinRate float64
	Rivals  []domain.LedgerView

	Profile     domain.Profile
	CatalogSize int

	CanLoot           bool
	CooldownRemaining time.Duration
}

type StatsService struct {
	ledger     *ledger.Store
	inventory  *repository.InventoryRepository
	loot       *LootService
	catalog    *catalog.Catalog
	rivalLimit int
	logger     zerolog.Logger
}

func NewStatsService(
	store *ledger.Store,
	inventory *repository.InventoryRepository,
	loot *LootService,
	cat *catalog.Catalog,
	rivalLimit int,
	logger zerolog.Logger,
) *StatsService {
	if rivalLimit <= 0 {
		rivalLimit = constants.DefaultRivalLimit
	}
	return &StatsService{
		ledger:     store,
		inventory:  inventory,
		loot:       loot,
		catalog:    cat,
		rivalLimit: rivalLimit,
		logger:     logger,
	}
}

func (s *StatsService) Stats(ctx context.Context, participantID int64) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	st := Stats{ParticipantID: participantID, CatalogSize: s.catalog.Snapshot().Len()}

	var views []domain.LedgerView
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		views, err = s.ledger.GetAllForParticipant(gCtx, participantID)
		return err
	})

	g.Go(func() error {
		var err error
		st.Profile, err = s.inventory.Profile(gCtx, participantID)
		return err
	})

	g.Go(func() error {
		res, err := s.loot.Status(gCtx, participantID)
		if err != nil {
			return err
		}
		st.CanLoot, st.CooldownRemaining = res.Allowed, res.Remaining
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Int64("user_id", participantID).Msg("failed to gather stats")
		return Stats{}, fmt.Errorf("failed to gather stats: %w", err)
	}

	for _, v := range views {
		st.TotalDuels += v.Total
		st.Wins += v.Wins
		st.Losses += v.Losses
	}
	if st.TotalDuels > 0 {
		st.WinRate = float64(st.Wins) / float64(st.TotalDuels) * 100
	}
	st.Rivals = topRivals(views, s.rivalLimit)

	s.logger.Debug().
		Int64("user_id", participantID).
		Int("total_duels", st.TotalDuels).
		Int("rivals", len(views)).
		Msg("stats gathered")
	return st, nil
}

// Record returns a's history against b, seen by a.
func (s *StatsService) Record(ctx context.Context, a, b int64) (domain.LedgerView, bool, error) {
	rec, ok, err := s.ledger.GetRecord(ctx, a, b)
	if err != nil || !ok {
		return domain.LedgerView{OpponentID: b}, false, err
	}
	return rec.ViewFor(a), true, nil
}

// topRivals orders views by duels fought, most first, then by opponent id,
// and keeps at most limit.
func topRivals(views []domain.LedgerView, limit int) []domain.LedgerView {
	out := append([]domain.LedgerView(nil), views...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].OpponentID < out[j].OpponentID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
