package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/locvowork/mywork_tools/internal/domain"
)

func TestParseContact(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.Contact
	}{
		{`"山田 太郎" <taro@example.com>`, domain.Contact{Email: "taro@example.com", Name: "山田 太郎"}},
		{`<taro@example.com>`, domain.Contact{Email: "taro@example.com"}},
		{`Taro <taro@example.com>`, domain.Contact{Email: "taro@example.com", Name: "Taro"}},
		{`  taro@example.com `, domain.Contact{Email: "taro@example.com"}},
		{``, domain.Contact{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseContact(tt.raw))
		})
	}
}

func TestParseContacts(t *testing.T) {
	got := ParseContacts([]string{`"A" <a@example.com>`, " ", "b@example.com"})
	assert.Equal(t, []domain.Contact{{Email: "a@example.com", Name: "A"}, {Email: "b@example.com"}}, got)
}

func TestParseOverrun(t *testing.T) {
	p, err := ParseOverrun("")
	assert.NoError(t, err)
	assert.Equal(t, OverrunSkip, p)

	p, err = ParseOverrun("STOP")
	assert.NoError(t, err)
	assert.Equal(t, OverrunStop, p)

	_, err = ParseOverrun("break")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}
