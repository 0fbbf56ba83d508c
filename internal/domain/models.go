package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "arzmania-cards/internal/errors"
)

// Rarity is a rarity tier. The set is closed and ordered from most to least
// common.
type Rarity string

const (
	RarityC      Rarity = "C"
	RarityR      Rarity = "R"
	RaritySR     Rarity = "SR"
	RaritySSR    Rarity = "SSR"
	RarityUR     Rarity = "UR"
	RarityLR     Rarity = "LR"
	RaritySecret Rarity = "SECRET"
)

// legacySecretLabel is how the SECRET tier was written in older card rows.
const legacySecretLabel = "???"

// Rarities lists every tier in canonical order.
var Rarities = [...]Rarity{RarityC, RarityR, RaritySR, RaritySSR, RarityUR, RarityLR, RaritySecret}

func (r Rarity) Valid() bool {
	return r.Index() >= 0
}

// Index returns the position of r in canonical order, or -1.
func (r Rarity) Index() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// ParseRarity accepts a tier name in any case, as well as the legacy "???".
func ParseRarity(s string) (Rarity, error) {
	s = strings.TrimSpace(s)
	if s == legacySecretLabel {
		return RaritySecret, nil
	}
	r := Rarity(strings.ToUpper(s))
	if !r.Valid() {
		return "", apperrors.Newf(apperrors.CodeInvalidRarity, "unknown rarity %q", s)
	}
	return r, nil
}

const (
	MinStat = 1
	MaxStat = 6
)

// StatProfile is the part of an item that takes part in combat.
type StatProfile struct {
	Power      int `json:"power"`
	Protection int `json:"protection"`
}

func (p StatProfile) Total() int {
	return p.Power + p.Protection
}

type Item struct {
	ID         string
	Name       string
	Rarity     Rarity
	Power      int
	Protection int
	ImageURL   string // cosmetic; the only field that may change after creation
	CreatedAt  time.Time
}

func (i Item) Profile() StatProfile {
	return StatProfile{Power: i.Power, Protection: i.Protection}
}

// Validate checks the creation-time constraints of an item.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "card name is required")
	}
	if !i.Rarity.Valid() {
		return apperrors.Newf(apperrors.CodeInvalidRarity, "unknown rarity %q", i.Rarity)
	}
	if err := checkStat("power", i.Power); err != nil {
		return err
	}
	return checkStat("protection", i.Protection)
}

func checkStat(name string, v int) error {
	if v < MinStat || v > MaxStat {
		return apperrors.Newf(apperrors.CodeInvalidStat, "%s must be between %d and %d, got %d", name, MinStat, MaxStat, v)
	}
	return nil
}

// Side identifies a duel participant: A is the challenger, B the opponent.
type Side int

const (
	SideNone Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "none"
	}
}

type StatCategory string

const (
	CategoryPower      StatCategory = "power"
	CategoryProtection StatCategory = "protection"
	CategoryTotal      StatCategory = "total"
)

// Round is one comparison of a duel.
type Round struct {
	Index    int
	Category StatCategory
	ValueA   int
	ValueB   int
	Winner   Side
	CoinFlip bool
}

type DuelOutcome struct {
	Winner Side
	Rounds [3]Round
	WinsA  int
	WinsB  int
}

// LedgerRecord is the cumulative history between a canonical pair.
// FirstWins belongs to Key.Low and SecondWins to Key.High.
type LedgerRecord struct {
	Key        PairKey
	FirstWins  int
	SecondWins int
	TotalDuels int
	LastDuelAt time.Time
}

func (r LedgerRecord) String() string {
	return fmt.Sprintf("%s %d-%d (%d)", r.Key, r.FirstWins, r.SecondWins, r.TotalDuels)
}

// ViewFor translates the record to the perspective of participant id.
func (r LedgerRecord) ViewFor(id int64) LedgerView {
	v := LedgerView{
		OpponentID: r.Key.Other(id),
		Total:      r.TotalDuels,
		LastDuelAt: r.LastDuelAt,
	}
	if id == r.Key.Low {
		v.Wins, v.Losses = r.FirstWins, r.SecondWins
	} else {
		v.Wins, v.Losses = r.SecondWins, r.FirstWins
	}
	return v
}

// LedgerView is a ledger record seen from one participant.
type LedgerView struct {
	OpponentID int64
	Wins       int
	Losses     int
	Total      int
	LastDuelAt time.Time
}

type CooldownRecord struct {
	ParticipantID int64
	LastActionAt  time.Time
}

// OwnedItem is an inventory line.
type OwnedItem struct {
	Item     Item
	Quantity int
}

type Profile struct {
	ParticipantID int64
	LootCount     int
	DistinctCards int
	TotalCards    int
	// Favorite is nil until the participant picks one.
	Favorite *Item
}
