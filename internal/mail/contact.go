package mail

import (
	"regexp"
	"strings"

	"github.com/locvowork/mywork_tools/internal/domain"
)

var contactPattern = regexp.MustCompile(`("[^"]+"|[^<]*)\s*<([^>]+)>`)

// ParseContact splits a header value such as `"山田 太郎" <taro@example.com>`.
// A value without angle brackets is taken as a bare address.
func ParseContact(raw string) domain.Contact {
	raw = strings.TrimSpace(raw)
	m := contactPattern.FindStringSubmatch(raw)
	if m == nil {
		return domain.Contact{Email: raw}
	}
	name := strings.TrimSpace(m[1])
	name = strings.Trim(name, `"`)
	return domain.Contact{Email: strings.TrimSpace(m[2]), Name: strings.TrimSpace(name)}
}

// ParseContacts parses every value, dropping empty ones.
func ParseContacts(raws []string) []domain.Contact {
	out := make([]domain.Contact, 0, len(raws))
	for _, r := range raws {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, ParseContact(r))
	}
	return out
}
