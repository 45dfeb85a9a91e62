package mail

import (
	"context"
	"errors"
	"testing"

	gomail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*gomail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

func TestSendNewsletterConfirmation(t *testing.T) {
	dialer := new(MockDialer)
	m := &Mail{dialer: dialer, parser: NewTemplate(), sender: "InkBloom <no-reply@example.com>"}

	dialer.On("DialAndSend", mock.MatchedBy(func(msgs []*gomail.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		return msgs[0].GetHeader("To")[0] == "ada@example.com" &&
			msgs[0].GetHeader("Subject")[0] == "Confirm your InkBloom newsletter subscription"
	})).Return(nil)

	err := m.SendNewsletterConfirmation(context.Background(), "ada@example.com", "Ada", "https://blog/api/v1/users/verify/tok")
	assert.NoError(t, err)
	dialer.AssertExpectations(t)
}

func TestSendPropagatesDialError(t *testing.T) {
	dialer := new(MockDialer)
	m := &Mail{dialer: dialer, parser: NewTemplate(), sender: "s@example.com"}
	dialer.On("DialAndSend", mock.Anything).Return(errors.New("smtp down"))

	err := m.SendNewsletterConfirmation(context.Background(), "x@example.com", "X", "link")
	assert.EqualError(t, err, "smtp down")
}

func TestParseTemplate(t *testing.T) {
	tp := NewTemplate()

	s, p, h, err := tp.ParseTemplate(newsletterTemplate, struct {
		Name        string
		ConfirmLink string
	}{"Ada", "https://blog/verify/abc"})
	assert.NoError(t, err)
	assert.NotEmpty(t, s.String())
	assert.Contains(t, p.String(), "https://blog/verify/abc")
	assert.Contains(t, h.String(), `href="https://blog/verify/abc"`)

	_, _, _, err = tp.ParseTemplate("missing.html", nil)
	assert.Error(t, err)
}
