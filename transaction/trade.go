package transaction

import (
	"regexp"
	"strings"
)

var (
	tradeDetails = regexp.MustCompile(`(?s)has been executed\.` + sp + `*(.*?)Note that you can adjust`)
	clickHere    = regexp.MustCompile(`You can click here to go to.*?\n`)
)

// ParseTrade returns the trade summary between the "has been executed." line
// and the roster adjustment note. Nil means the email had no usable content.
func ParseTrade(htmlBody string) *TradeResult {
	text, ok := containerText(htmlBody)
	if !ok {
		return nil
	}

	m := tradeDetails.FindStringSubmatch(normalizeLines(text))
	if m == nil {
		return nil
	}

	details := clickHere.ReplaceAllString(strings.TrimSpace(m[1]), "")
	return &TradeResult{Details: strings.TrimSpace(details)}
}
