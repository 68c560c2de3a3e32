package transaction

import (
	"regexp"
	"strings"
)

// Character classes matching Unicode whitespace and word characters, so
// non-breaking spaces and accented names parse like plain ASCII.
const (
	spaceChars = `\s\v\x{85}\p{Z}`
	wordChars  = `\p{L}\p{N}_`
	sp         = `[` + spaceChars + `]`
)

var (
	claimPattern = regexp.MustCompile(
		`\*(.+?)\*` + sp + `*\n` + sp + `*([` + wordChars + spaceChars + `\-']+)` + sp + `+([A-Z]+)` + sp + `*-` + sp + `*([` + wordChars + `,]+.*)`)

	dropPattern = regexp.MustCompile(
		`(?s)re-entered the` + sp + `+player pool as free agents.*?:` + sp + `*(.*?)(?:Note that|Thanks|$)`)

	draftPattern = regexp.MustCompile(
		`(?s)Round` + sp + `+(\d+)` + sp + `*,` + sp + `*Pick` + sp + `+(\d+)` + sp + `*:` + sp + `*(.+?)` + sp + `+was picked by the team` + sp + `+(.+?)` + sp + `*\.`)

	whitespaceRun = regexp.MustCompile(sp + `+`)
)

// Extractor turns an HTML body into a Transaction. Implementations never fail;
// unparseable input yields a raw fallback or a nil payload.
type Extractor interface {
	Extract(html string) Transaction
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(html string) Transaction

// Extract calls f(html).
func (f ExtractorFunc) Extract(html string) Transaction {
	return f(html)
}

var extractors = map[Kind]Extractor{
	Claim: ExtractorFunc(func(html string) Transaction {
		return Transaction{Kind: Claim, Claim: ParseClaim(PlainText(html))}
	}),
	Drop: ExtractorFunc(func(html string) Transaction {
		return Transaction{Kind: Drop, Drop: ParseDrop(PlainText(html))}
	}),
	Trade: ExtractorFunc(func(html string) Transaction {
		return Transaction{Kind: Trade, Trade: ParseTrade(html)}
	}),
	Block: ExtractorFunc(func(html string) Transaction {
		return Transaction{Kind: Block, Block: ParseBlock(PlainText(html))}
	}),
	Draft: ExtractorFunc(func(html string) Transaction {
		return Transaction{Kind: Draft, Draft: ParseDraft(PlainText(html))}
	}),
}

// Extract parses html with the extractor registered for kind.
// Kinds without an extractor produce an empty Transaction of that kind.
func Extract(kind Kind, html string) Transaction {
	if e, ok := extractors[kind]; ok {
		return e.Extract(html)
	}
	return Transaction{Kind: kind}
}

// ParseClaim finds the "*Team*" line followed by "Player POS - details".
func ParseClaim(text string) *ClaimResult {
	m := claimPattern.FindStringSubmatch(text)
	if m == nil {
		return &ClaimResult{Raw: text}
	}
	return &ClaimResult{
		Team:    strings.TrimSpace(m[1]),
		Player:  strings.TrimSpace(m[2]) + " " + strings.TrimSpace(m[3]),
		Details: strings.TrimSpace(m[4]),
	}
}

// ParseDrop lists the players that re-entered the pool, one per line.
func ParseDrop(text string) *DropResult {
	m := dropPattern.FindStringSubmatch(text)
	if m == nil {
		return &DropResult{Raw: text}
	}

	players := []string{}
	for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
		if p := strings.TrimSpace(line); p != "" {
			players = append(players, p)
		}
	}
	return &DropResult{Players: players}
}

// ParseDraft reads "Round R, Pick P: Player was picked by the team Team."
func ParseDraft(text string) *DraftResult {
	m := draftPattern.FindStringSubmatch(text)
	if m == nil {
		return &DraftResult{Raw: text}
	}
	return &DraftResult{
		Round:  collapse(m[1]),
		Pick:   collapse(m[2]),
		Player: collapse(m[3]),
		Team:   collapse(m[4]),
	}
}

func collapse(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}
