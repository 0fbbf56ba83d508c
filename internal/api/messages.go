package api

import (
	"time"

	"arzmania-cards/internal/constants"
)

const (
	ProcedureDrawLoot      = constants.CardServicePath + "DrawLoot"
	ProcedureResetCooldown = constants.CardServicePath + "ResetCooldown"
	ProcedureDuel          = constants.CardServicePath + "Duel"
	ProcedureGetStats      = constants.CardServicePath + "GetStats"
	ProcedureGetRecord     = constants.CardServicePath + "GetRecord"
	ProcedureAddCard       = constants.CardServicePath + "AddCard"
	ProcedureDeleteCard    = constants.CardServicePath + "DeleteCard"
	ProcedureSetCardImage  = constants.CardServicePath + "SetCardImage"
	ProcedureListCards     = constants.CardServicePath + "ListCards"
	ProcedureListInventory = constants.CardServicePath + "ListInventory"
	ProcedureGiveCard      = constants.CardServicePath + "GiveCard"
	ProcedureGrantCard     = constants.CardServicePath + "GrantCard"
	ProcedureGetCard       = constants.CardServicePath + "GetCard"
	ProcedureSetFavorite   = constants.CardServicePath + "SetFavorite"
)

// ErrorCodeHeader carries the application error code next to the connect
// status, so clients can rebuild the typed error.
const ErrorCodeHeader = "Card-Error-Code"

type Card struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rarity     string    `json:"rarity"`
	Power      int       `json:"power"`
	Protection int       `json:"protection"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OwnedCard struct {
	Card     Card `json:"card"`
	Quantity int  `json:"quantity"`
}

// Record is a pair's duel history seen by one participant.
type Record struct {
	OpponentID int64     `json:"opponentId"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	Total      int       `json:"total"`
	LastDuelAt time.Time `json:"lastDuelAt"`
}

type Round struct {
	Index      int    `json:"index"`
	Category   string `json:"category"`
	Challenger int    `json:"challenger"`
	Opponent   int    `json:"opponent"`
	// Winner is "challenger", "opponent" or "none".
	Winner   string `json:"winner"`
	CoinFlip bool   `json:"coinFlip,omitempty"`
}

type DrawLootRequest struct {
	UserID int64 `json:"userId"`
}

type DrawLootResponse struct {
	Allowed     bool  `json:"allowed"`
	RemainingMs int64 `json:"remainingMs,omitempty"`
	Card        *Card `json:"card,omitempty"`
}

func (r *DrawLootResponse) Remaining() time.Duration {
	return time.Duration(r.RemainingMs) * time.Millisecond
}

type ResetCooldownRequest struct {
	UserID     int64 `json:"userId"`
	Privileged bool  `json:"privileged"`
}

type ResetCooldownResponse struct{}

type DuelRequest struct {
	ChallengerID   int64  `json:"challengerId"`
	OpponentID     int64  `json:"opponentId"`
	ChallengerCard string `json:"challengerCard"`
	OpponentCard   string `json:"opponentCard,omitempty"`
}

type DuelResponse struct {
	ChallengerCard Card    `json:"challengerCard"`
	OpponentCard   Card    `json:"opponentCard"`
	Winner         string  `json:"winner"`
	Rounds         []Round `json:"rounds"`
	ChallengerWins int     `json:"challengerWins"`
	OpponentWins   int     `json:"opponentWins"`
	Record         Record  `json:"record"`
}

type GetStatsRequest struct {
	UserID int64 `json:"userId"`
}

type GetStatsResponse struct {
	UserID              int64    `json:"userId"`
	TotalDuels          int      `json:"totalDuels"`
	Wins                int      `json:"wins"`
	Losses              int      `json:"losses"`
	WinRate             float64  `json:"winRate"`
	Rivals              []Record `json:"rivals"`
	LootCount           int      `json:"lootCount"`
	DistinctCards       int      `json:"distinctCards"`
	TotalCards          int      `json:"totalCards"`
	Favorite            *Card    `json:"favorite,omitempty"`
	CatalogSize         int      `json:"catalogSize"`
	CanLoot             bool     `json:"canLoot"`
	CooldownRemainingMs int64    `json:"cooldownRemainingMs,omitempty"`
}

type GetRecordRequest struct {
	UserID     int64 `json:"userId"`
	OpponentID int64 `json:"opponentId"`
}

type GetRecordResponse struct {
	Found  bool   `json:"found"`
	Record Record `json:"record"`
}

type AddCardRequest struct {
	Privileged bool   `json:"privileged"`
	Name       string `json:"name"`
	Rarity     string `json:"rarity"`
	Power      int    `json:"power"`
	Protection int    `json:"protection"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

type CardResponse struct {
	Card Card `json:"card"`
}

type DeleteCardRequest struct {
	Privileged bool   `json:"privileged"`
	Name       string `json:"name"`
}

type SetCardImageRequest struct {
	Privileged bool   `json:"privileged"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
}

type ListCardsRequest struct {
	Rarity string `json:"rarity,omitempty"`
}

type ListCardsResponse struct {
	Cards []Card `json:"cards"`
}

type ListInventoryRequest struct {
	UserID int64 `json:"userId"`
}

type ListInventoryResponse struct {
	Items []OwnedCard `json:"items"`
}

type GiveCardRequest struct {
	FromUserID int64  `json:"fromUserId"`
	ToUserID   int64  `json:"toUserId"`
	CardName   string `json:"cardName"`
}

type GrantCardRequest struct {
	Privileged bool   `json:"privileged"`
	UserID     int64  `json:"userId"`
	CardName   string `json:"cardName"`
	Quantity   int    `json:"quantity,omitempty"`
}

type GetCardRequest struct {
	Name string `json:"name"`
}

type SetFavoriteRequest struct {
	UserID   int64  `json:"userId"`
	CardName string `json:"cardName"`
}
