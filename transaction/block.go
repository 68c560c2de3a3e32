package transaction

import (
	"regexp"
	"strings"
)

var (
	blockTeam = regexp.MustCompile(`- (.+?) has made changes to the Trade Block`)

	playersOffered   = section("Players Offered", "Positions Offered:")
	positionsOffered = section("Positions Offered", "Stats Offered:")
	statsOffered     = section("Stats Offered", "Positions Needed:")
	positionsNeeded  = section("Positions Needed", "Stats Needed:")
	statsNeeded      = section("Stats Needed", "Comment:")
	blockComment     = section("Comment", "(?:Note that|$)")

	playerSeparator = regexp.MustCompile(`\n+|` + sp + `{2,}`)
)

// section matches the text between "label:" and the terminator pattern.
func section(label, terminator string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(label) + `:(.*?)` + terminator)
}

func findSection(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseBlock reads a trade block update. Nil means the team line was missing.
func ParseBlock(text string) *BlockResult {
	m := blockTeam.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	// "The Don Orsillo Open - Grand Salamis" -> "Grand Salamis"
	team := strings.TrimSpace(m[1])
	if i := strings.LastIndex(team, " - "); i >= 0 {
		team = strings.TrimSpace(team[i+len(" - "):])
	}

	var players []string
	for _, p := range playerSeparator.Split(findSection(playersOffered, text), -1) {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}

	return &BlockResult{
		Team:             team,
		PlayersOffered:   players,
		PositionsOffered: orNone(findSection(positionsOffered, text)),
		StatsOffered:     orNone(findSection(statsOffered, text)),
		PositionsNeeded:  orNone(findSection(positionsNeeded, text)),
		StatsNeeded:      orNone(findSection(statsNeeded, text)),
		Comment:          findSection(blockComment, text),
	}
}

func orNone(s string) string {
	if s == "" {
		return NoneSpecified
	}
	return s
}
