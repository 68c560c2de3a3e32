package transaction

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"google.golang.org/api/gmail/v1"
)

const contentSelector = ".darkmode-text"

var multiSpace = regexp.MustCompile(` +`)

// Subject returns the Subject header of a message, or "".
func Subject(msg *gmail.Message) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, "subject") {
			return h.Value
		}
	}
	return ""
}

// HTMLBody returns the decoded text/html body of a message.
// The top-level payload wins, then the first text/html part.
func HTMLBody(msg *gmail.Message) (string, bool) {
	if msg == nil || msg.Payload == nil {
		return "", false
	}

	candidates := append([]*gmail.MessagePart{msg.Payload}, msg.Payload.Parts...)
	for _, part := range candidates {
		if part == nil || part.MimeType != "text/html" || part.Body == nil || part.Body.Data == "" {
			continue
		}
		body, err := decodeBody(part.Body.Data)
		if err != nil {
			continue
		}
		return body, true
	}
	return "", false
}

func decodeBody(data string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(b), nil
}

// PlainText extracts the readable text of a Fantrax email.
// Text nodes of the content element are joined with single spaces and <br> becomes a newline.
// Without a content element the whole document is used and <br> adds nothing.
func PlainText(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return strings.TrimSpace(htmlBody)
	}

	sel := doc.Find(contentSelector).First()
	if sel.Length() == 0 {
		return strings.TrimSpace(nodeText(doc.Selection, " ", false))
	}
	return strings.TrimSpace(nodeText(sel, " ", true))
}

// containerText returns the content element's text joined without separators,
// or false when the element is missing.
func containerText(htmlBody string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", false
	}
	sel := doc.Find(contentSelector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return nodeText(sel, "", true), true
}

// nodeText joins every text node under sel with sep. With breaks set, <br> renders as "\n".
// Script and style contents and comments are skipped.
func nodeText(sel *goquery.Selection, sep string, breaks bool) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			parts = append(parts, n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "br":
				if breaks {
					parts = append(parts, "\n")
				}
				return
			case "script", "style", "template":
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// normalizeLines trims each line, collapses runs of spaces, and folds
// consecutive blank lines into one.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	prevEmpty := false
	for _, line := range lines {
		line = multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
		if line == "" {
			if !prevEmpty {
				out = append(out, line)
			}
			prevEmpty = true
			continue
		}
		out = append(out, line)
		prevEmpty = false
	}
	return strings.Join(out, "\n")
}
