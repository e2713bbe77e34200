package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/justcars/go-dealer-auth"
	"github.com/justcars/go-dealer-auth/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	to      []string
	message []string
	err     error
}

func (s *captureSender) Send(_ context.Context, to, message string) error {
	s.to = append(s.to, to)
	s.message = append(s.message, message)
	return s.err
}

func testDealer() *dealer.Dealer {
	return &dealer.Dealer{
		BusinessName: "Lagos Premium Motors",
		Email:        "sales@lagospremium.ng",
		Phone:        "08012345678",
	}
}

func TestDealerVerifiedFansOutToBothChannels(t *testing.T) {
	sms := &captureSender{}
	email := &captureSender{}

	n := notify.New(notify.WithSMS(sms), notify.WithEmail(email))
	err := n.DealerVerified(context.Background(), testDealer(), "https://justcars.ng/dealer/setup?email=x&token=y")
	require.NoError(t, err)

	require.Len(t, sms.to, 1)
	assert.Equal(t, "08012345678", sms.to[0])
	assert.Contains(t, sms.message[0], "https://justcars.ng/dealer/setup?email=x&token=y")
	assert.Contains(t, sms.message[0], "Lagos Premium Motors")

	require.Len(t, email.to, 1)
	assert.Equal(t, "sales@lagospremium.ng", email.to[0])
}

func TestDealerApprovedSkipsMissingDestinations(t *testing.T) {
	sms := &captureSender{}
	email := &captureSender{}

	d := testDealer()
	d.Phone = ""

	n := notify.New(notify.WithSMS(sms), notify.WithEmail(email))
	require.NoError(t, n.DealerApproved(context.Background(), d))

	assert.Empty(t, sms.to)
	require.Len(t, email.to, 1)
	assert.Contains(t, email.message[0], "approved")
}

func TestDeliverReportsFirstFailureButTriesAll(t *testing.T) {
	sms := &captureSender{err: errors.New("provider down")}
	email := &captureSender{}

	n := notify.New(notify.WithSMS(sms), notify.WithEmail(email))
	err := n.DealerApproved(context.Background(), testDealer())

	assert.EqualError(t, err, "provider down")
	// email still attempted
	require.Len(t, email.to, 1)
}

func TestNewWithoutSendersIsANoOp(t *testing.T) {
	n := notify.New()
	assert.NoError(t, n.DealerVerified(context.Background(), testDealer(), "link"))
	assert.NoError(t, n.DealerApproved(context.Background(), testDealer()))
}
