package service

import (
    "bytes"
    "context"
    "errors"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "github.com/wneessen/go-mail"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/queue"
)

func testMailer(sent *[]*mail.Msg) *Mailer {
    return &Mailer{
        cfg: config.MailConfig{From: "no-reply@example.com", ContactInbox: "inbox@example.com"},
        send: func(_ context.Context, msgs ...*mail.Msg) error {
            *sent = append(*sent, msgs...)
            return nil
        },
    }
}

func render(t *testing.T, m *mail.Msg) string {
    t.Helper()
    var buf bytes.Buffer
    _, err := m.WriteTo(&buf)
    require.NoError(t, err)
    return buf.String()
}

func TestDeliverPasswordReset(t *testing.T) {
    var sent []*mail.Msg
    m := testMailer(&sent)
    link := "https://app.example.com/reset?uid=MQ&token=abc-123"

    require.NoError(t, m.Deliver(context.Background(), queue.NewPasswordReset("alice@example.com", "alice", link)))
    require.Len(t, sent, 1)
    assert.Equal(t, []string{"<alice@example.com>"}, sent[0].GetToString())
    raw := render(t, sent[0])
    assert.Contains(t, raw, "Reset your password")
    // Body is quoted-printable, so '=' in the link is escaped.
    assert.Contains(t, raw, "app.example.com/reset?uid=3DMQ")
}

func TestDeliverContactGoesToInboxWithReplyTo(t *testing.T) {
    var sent []*mail.Msg
    m := testMailer(&sent)

    require.NoError(t, m.Deliver(context.Background(), queue.NewContactMessage("Bob", "bob@example.com", "Do you ship abroad?")))
    require.Len(t, sent, 1)
    assert.Equal(t, []string{"<inbox@example.com>"}, sent[0].GetToString())
    raw := render(t, sent[0])
    assert.Contains(t, raw, "Reply-To: <bob@example.com>")
    assert.Contains(t, raw, "Do you ship abroad?")
}

func TestDeliverPropagatesSendFailure(t *testing.T) {
    m := &Mailer{
        cfg:  config.MailConfig{From: "no-reply@example.com", ContactInbox: "inbox@example.com"},
        send: func(context.Context, ...*mail.Msg) error { return errors.New("connection refused") },
    }
    err := m.Deliver(context.Background(), queue.NewContactMessage("Bob", "bob@example.com", "hi"))
    assert.EqualError(t, err, "connection refused")
}

func TestDeliverRejectsUnknownKind(t *testing.T) {
    var sent []*mail.Msg
    err := testMailer(&sent).Deliver(context.Background(), queue.Notification{Kind: "sms"})
    assert.ErrorIs(t, err, queue.ErrMalformed)
    assert.Empty(t, sent)
}
