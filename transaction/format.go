package transaction

import (
	"fmt"
	"strings"
)

var emoji = map[Kind]string{
	Claim: "✅",
	Drop:  "🚫",
	Trade: "🔄",
	Block: "🟦",
	Draft: "🍺",
}

const defaultEmoji = "📋"

// Formatter renders transactions as chat messages for one league.
type Formatter struct {
	League string
}

// Format renders "{emoji} **{title}**\n\n{details}\n\n".
func (f Formatter) Format(tx Transaction) string {
	e, ok := emoji[tx.Kind]
	if !ok {
		e = defaultEmoji
	}
	return fmt.Sprintf("%s **%s**\n\n%s\n\n", e, f.title(tx.Kind), details(tx))
}

func (f Formatter) title(kind Kind) string {
	league := f.League
	if league == "" {
		league = DefaultLeague
	}
	switch kind {
	case Claim:
		return fmt.Sprintf("A player has been claimed in %s!", league)
	case Drop:
		return fmt.Sprintf("A player has been dropped in %s!", league)
	case Trade:
		return fmt.Sprintf("A trade has been executed in %s!", league)
	case Block:
		return fmt.Sprintf("A trade block has been updated in %s!", league)
	case Draft:
		return fmt.Sprintf("Draft pick made in %s!", league)
	}
	return "A transaction occurred!"
}

func details(tx Transaction) string {
	switch tx.Kind {
	case Block:
		if tx.Block != nil {
			return formatBlock(tx.Block)
		}
	case Trade:
		if tx.Trade != nil {
			return tx.Trade.Details
		}
	case Claim:
		if c := tx.Claim; c != nil {
			if c.Player != "" {
				return fmt.Sprintf("**%s** claimed %s", c.Team, c.Player)
			}
			return c.Raw
		}
	case Drop:
		if d := tx.Drop; d != nil {
			if d.Players != nil {
				return "Players dropped to waivers:\n" + strings.Join(d.Players, "\n")
			}
			return d.Raw
		}
	case Draft:
		if d := tx.Draft; d != nil {
			if d.Player != "" {
				return fmt.Sprintf("**%s** drafted **%s**\nRound %s, Pick %s", d.Team, d.Player, d.Round, d.Pick)
			}
			return d.Raw
		}
	}
	return ""
}

func formatBlock(b *BlockResult) string {
	players := "(none)"
	if len(b.PlayersOffered) > 0 {
		players = strings.Join(b.PlayersOffered, "\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** updated their trade block\n\n", b.Team)
	fmt.Fprintf(&sb, "**Players Offered:**\n%s\n\n", players)
	fmt.Fprintf(&sb, "**Positions Offered:** %s\n", b.PositionsOffered)
	fmt.Fprintf(&sb, "**Stats Offered:** %s\n", b.StatsOffered)
	fmt.Fprintf(&sb, "**Positions Needed:** %s\n", b.PositionsNeeded)
	fmt.Fprintf(&sb, "**Stats Needed:** %s\n", b.StatsNeeded)
	if b.Comment != "" {
		fmt.Fprintf(&sb, "**Comment:** %s\n", b.Comment)
	}
	return strings.TrimSpace(sb.String())
}
