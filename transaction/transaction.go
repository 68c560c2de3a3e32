// Package transaction classifies, parses, and formats Fantrax transaction emails.
package transaction

import "strings"

// Kind is the transaction category derived from an email subject.
type Kind string

// Transaction kinds.
const (
	Claim   Kind = "claim"
	Drop    Kind = "drop"
	Trade   Kind = "trade"
	Block   Kind = "block"
	Draft   Kind = "draft"
	Unknown Kind = "unknown"
)

// DefaultLeague is the league name used in message titles when none is configured.
const DefaultLeague = "The Don Orsillo Open"

// NoneSpecified fills trade block fields the owner left blank.
const NoneSpecified = "(None specified)"

// ClaimResult is a waiver claim. Raw holds the whole text when the claim line was not found.
type ClaimResult struct {
	Team    string
	Player  string
	Details string
	Raw     string
}

// DropResult lists players released to the pool. Players is nil when the list was not found.
type DropResult struct {
	Players []string
	Raw     string
}

// TradeResult is the free-form trade summary.
type TradeResult struct {
	Details string
}

// BlockResult is a team's trade block offer.
type BlockResult struct {
	Team             string
	PlayersOffered   []string
	PositionsOffered string
	StatsOffered     string
	PositionsNeeded  string
	StatsNeeded      string
	Comment          string
}

// DraftResult is a single draft pick.
type DraftResult struct {
	Round  string
	Pick   string
	Player string
	Team   string
	Raw    string
}

// Transaction is the parsed payload for one email. At most one payload field is set,
// matching Kind. A nil payload means nothing could be extracted.
type Transaction struct {
	Claim *ClaimResult
	Drop  *DropResult
	Trade *TradeResult
	Block *BlockResult
	Draft *DraftResult
	Kind  Kind
}

// Classify maps a subject line to a Kind. The first matching phrase wins.
func Classify(subject string) Kind {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "player(s) claimed"):
		return Claim
	case strings.Contains(s, "free agents added to pool"):
		return Drop
	case strings.Contains(s, "trade executed"):
		return Trade
	case strings.Contains(s, "trade block changed"):
		return Block
	case strings.Contains(s, "draft pick made"):
		return Draft
	}
	return Unknown
}
