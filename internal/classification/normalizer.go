package classification

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/inbox-triage/internal/model"
)

const (
	subjectRepeat = 10
	senderRepeat  = 3
	unknownDomain = "unknown"
)

// Letters that do not decompose into a base letter plus a combining mark.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "oe",
	"æ", "ae", "Æ", "ae",
	"ß", "ss",
	"ø", "o", "Ø", "o",
	"ł", "l", "Ł", "l",
)

// Fold lower-cases s, strips diacritics and collapses hyphens, underscores
// and whitespace runs into single spaces. Haystacks and keywords go through
// the same function so substring matching is accent and case insensitive.
func Fold(s string) string {
	if s == "" {
		return ""
	}

	if !isASCII(s) {
		s = ligatures.Replace(s)
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, s); err == nil {
			s = folded
		}
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize builds the searchable content of a message. Missing fields
// degrade to empty strings.
func Normalize(msg model.Message) model.NormalizedContent {
	subject := strings.TrimSpace(msg.Subject)
	sender := strings.TrimSpace(msg.From.Address)

	parts := make([]string, 0, subjectRepeat+senderRepeat+2)
	for i := 0; i < subjectRepeat; i++ {
		parts = append(parts, subject)
	}
	for i := 0; i < senderRepeat; i++ {
		parts = append(parts, sender)
	}
	parts = append(parts, msg.BodyPreview, bodyText(msg.Body))

	return model.NormalizedContent{
		Text:        Fold(strings.Join(parts, " ")),
		SubjectText: Fold(subject),
		Domain:      SenderDomain(sender),
	}
}

// SenderDomain returns the lower-cased part after the last @ of address,
// or "unknown".
func SenderDomain(address string) string {
	address = strings.Trim(strings.TrimSpace(address), "<>")
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return unknownDomain
	}
	return strings.ToLower(address[at+1:])
}

func bodyText(body model.Body) string {
	if body.Content == "" {
		return ""
	}
	if !body.IsHTML() {
		return body.Content
	}
	return stripHTML(body.Content)
}

// stripHTML keeps the text nodes of markup, with entities decoded and tags,
// scripts and styles replaced by whitespace.
func stripHTML(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or truncated markup; either way keep what was read.
			return b.String()
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "head":
		return true
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
