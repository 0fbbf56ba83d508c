package server

import (
	"context"
	"errors"
	"time"

	"arzmania-cards/internal/api"
	"arzmania-cards/internal/domain"
	apperrors "arzmania-cards/internal/errors"
	"arzmania-cards/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type CardServer struct {
	lootSvc      *service.LootService
	duelSvc      *service.DuelService
	statsSvc     *service.StatsService
	catalogSvc   *service.CatalogService
	inventorySvc *service.InventoryService
	logger       zerolog.Logger
}

func NewCardServer(
	lootSvc *service.LootService,
	duelSvc *service.DuelService,
	statsSvc *service.StatsService,
	catalogSvc *service.CatalogService,
	inventorySvc *service.InventoryService,
	logger zerolog.Logger,
) *CardServer {
	return &CardServer{
		lootSvc:      lootSvc,
		duelSvc:      duelSvc,
		statsSvc:     statsSvc,
		catalogSvc:   catalogSvc,
		inventorySvc: inventorySvc,
		logger:       logger,
	}
}

func (s *CardServer) DrawLoot(ctx context.Context, req *connect.Request[api.DrawLootRequest]) (*connect.Response[api.DrawLootResponse], error) {
	res, err := s.lootSvc.Draw(ctx, req.Msg.UserID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	out := &api.DrawLootResponse{Allowed: res.Allowed, RemainingMs: ceilMillis(res.Remaining)}
	if res.Allowed {
		card := toCard(res.Item)
		out.Card = &card
	}
	return connect.NewResponse(out), nil
}

func (s *CardServer) ResetCooldown(ctx context.Context, req *connect.Request[api.ResetCooldownRequest]) (*connect.Response[api.ResetCooldownResponse], error) {
	if err := s.lootSvc.ResetCooldown(ctx, req.Msg.Privileged, req.Msg.UserID); err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.ResetCooldownResponse{}), nil
}

func (s *CardServer) Duel(ctx context.Context, req *connect.Request[api.DuelRequest]) (*connect.Response[api.DuelResponse], error) {
	res, err := s.duelSvc.Duel(ctx, service.DuelRequest{
		ChallengerID:   req.Msg.ChallengerID,
		OpponentID:     req.Msg.OpponentID,
		ChallengerCard: req.Msg.ChallengerCard,
		OpponentCard:   req.Msg.OpponentCard,
	})
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}

	rounds := make([]api.Round, 0, len(res.Outcome.Rounds))
	for _, r := range res.Outcome.Rounds {
		rounds = append(rounds, api.Round{
			Index:      r.Index,
			Category:   string(r.Category),
			Challenger: r.ValueA,
			Opponent:   r.ValueB,
			Winner:     sideLabel(r.Winner),
			CoinFlip:   r.CoinFlip,
		})
	}

	return connect.NewResponse(&api.DuelResponse{
		ChallengerCard: toCard(res.ChallengerCard),
		OpponentCard:   toCard(res.OpponentCard),
		Winner:         sideLabel(res.Outcome.Winner),
		Rounds:         rounds,
		ChallengerWins: res.Outcome.WinsA,
		OpponentWins:   res.Outcome.WinsB,
		Record:         toRecord(res.Record),
	}), nil
}

func (s *CardServer) GetStats(ctx context.Context, req *connect.Request[api.GetStatsRequest]) (*connect.Response[api.GetStatsResponse], error) {
	st, err := s.statsSvc.Stats(ctx, req.Msg.UserID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	rivals := make([]api.Record, 0, len(st.Rivals))
	for _, v := range st.Rivals {
		rivals = append(rivals, toRecord(v))
	}
	var favorite *api.Card
	if st.Profile.Favorite != nil {
		card := toCard(*st.Profile.Favorite)
		favorite = &card
	}
	return connect.NewResponse(&api.GetStatsResponse{
		UserID:              st.ParticipantID,
		TotalDuels:          st.TotalDuels,
		Wins:                st.Wins,
		Losses:              st.Losses,
		WinRate:             st.WinRate,
		Rivals:              rivals,
		LootCount:           st.Profile.LootCount,
		DistinctCards:       st.Profile.DistinctCards,
		TotalCards:          st.Profile.TotalCards,
		Favorite:            favorite,
		CatalogSize:         st.CatalogSize,
		CanLoot:             st.CanLoot,
		CooldownRemainingMs: ceilMillis(st.CooldownRemaining),
	}), nil
}

func (s *CardServer) GetRecord(ctx context.Context, req *connect.Request[api.GetRecordRequest]) (*connect.Response[api.GetRecordResponse], error) {
	view, ok, err := s.statsSvc.Record(ctx, req.Msg.UserID, req.Msg.OpponentID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.GetRecordResponse{Found: ok, Record: toRecord(view)}), nil
}

func (s *CardServer) AddCard(ctx context.Context, req *connect.Request[api.AddCardRequest]) (*connect.Response[api.CardResponse], error) {
	rarity, err := domain.ParseRarity(req.Msg.Rarity)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	item, err := s.catalogSvc.AddItem(ctx, req.Msg.Privileged, domain.Item{
		Name:       req.Msg.Name,
		Rarity:     rarity,
		Power:      req.Msg.Power,
		Protection: req.Msg.Protection,
		ImageURL:   req.Msg.ImageURL,
	})
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) DeleteCard(ctx context.Context, req *connect.Request[api.DeleteCardRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.catalogSvc.DeleteItem(ctx, req.Msg.Privileged, req.Msg.Name)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) SetCardImage(ctx context.Context, req *connect.Request[api.SetCardImageRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.catalogSvc.SetImage(ctx, req.Msg.Privileged, req.Msg.Name, req.Msg.ImageURL)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) GetCard(ctx context.Context, req *connect.Request[api.GetCardRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.catalogSvc.Get(req.Msg.Name)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) ListCards(ctx context.Context, req *connect.Request[api.ListCardsRequest]) (*connect.Response[api.ListCardsResponse], error) {
	var rarity domain.Rarity
	if req.Msg.Rarity != "" {
		r, err := domain.ParseRarity(req.Msg.Rarity)
		if err != nil {
			return nil, s.toConnectError(ctx, err)
		}
		rarity = r
	}
	items := s.catalogSvc.List(rarity)
	cards := make([]api.Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, toCard(item))
	}
	return connect.NewResponse(&api.ListCardsResponse{Cards: cards}), nil
}

func (s *CardServer) ListInventory(ctx context.Context, req *connect.Request[api.ListInventoryRequest]) (*connect.Response[api.ListInventoryResponse], error) {
	owned, err := s.inventorySvc.List(ctx, req.Msg.UserID)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	items := make([]api.OwnedCard, 0, len(owned))
	for _, o := range owned {
		items = append(items, api.OwnedCard{Card: toCard(o.Item), Quantity: o.Quantity})
	}
	return connect.NewResponse(&api.ListInventoryResponse{Items: items}), nil
}

func (s *CardServer) GiveCard(ctx context.Context, req *connect.Request[api.GiveCardRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.inventorySvc.Give(ctx, req.Msg.FromUserID, req.Msg.ToUserID, req.Msg.CardName)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) GrantCard(ctx context.Context, req *connect.Request[api.GrantCardRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.inventorySvc.Grant(ctx, req.Msg.Privileged, req.Msg.UserID, req.Msg.CardName, req.Msg.Quantity)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

func (s *CardServer) SetFavorite(ctx context.Context, req *connect.Request[api.SetFavoriteRequest]) (*connect.Response[api.CardResponse], error) {
	item, err := s.inventorySvc.SetFavorite(ctx, req.Msg.UserID, req.Msg.CardName)
	if err != nil {
		return nil, s.toConnectError(ctx, err)
	}
	return connect.NewResponse(&api.CardResponse{Card: toCard(item)}), nil
}

// toConnectError reports err with the connect code of its application code
// and sets the application code as error metadata. Uncoded errors are
// internal and logged.
func (s *CardServer) toConnectError(ctx context.Context, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		if errors.Is(err, context.DeadlineExceeded) {
			return connect.NewError(connect.CodeDeadlineExceeded, err)
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
		return connect.NewError(connect.CodeInternal, err)
	}
	cerr := connect.NewError(code.ConnectCode(), err)
	cerr.Meta().Set(api.ErrorCodeHeader, string(code))
	return cerr
}

func toCard(item domain.Item) api.Card {
	return api.Card{
		ID:         item.ID,
		Name:       item.Name,
		Rarity:     string(item.Rarity),
		Power:      item.Power,
		Protection: item.Protection,
		ImageURL:   item.ImageURL,
		CreatedAt:  item.CreatedAt,
	}
}

func toRecord(v domain.LedgerView) api.Record {
	return api.Record{
		OpponentID: v.OpponentID,
		Wins:       v.Wins,
		Losses:     v.Losses,
		Total:      v.Total,
		LastDuelAt: v.LastDuelAt,
	}
}

// ceilMillis rounds d up to whole milliseconds so a sub-millisecond wait is
// never reported as none.
func ceilMillis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d > time.Duration(ms)*time.Millisecond {
		ms++
	}
	return ms
}

func sideLabel(s domain.Side) string {
	switch s {
	case domain.SideA:
		return "challenger"
	case domain.SideB:
		return "opponent"
	default:
		return "none"
	}
}
