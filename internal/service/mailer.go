package service

import (
    "context"
    "fmt"
    "strings"

    "github.com/wneessen/go-mail"

    "github.com/iliyamo/backoffice/internal/config"
    "github.com/iliyamo/backoffice/internal/queue"
)

// Mailer turns notifications into SMTP messages. It is the Handler of the
// notification consumer.
type Mailer struct {
    cfg  config.MailConfig
    send func(ctx context.Context, msgs ...*mail.Msg) error
}

// NewMailer builds an SMTP client from cfg. Authentication is enabled only
// when a username is configured.
func NewMailer(cfg config.MailConfig) (*Mailer, error) {
    opts := []mail.Option{mail.WithPort(cfg.Port), mail.WithTLSPolicy(mail.TLSOpportunistic)}
    if cfg.TLS {
        opts[1] = mail.WithTLSPolicy(mail.TLSMandatory)
    }
    if cfg.Username != "" {
        opts = append(opts,
            mail.WithSMTPAuth(mail.SMTPAuthPlain),
            mail.WithUsername(cfg.Username),
            mail.WithPassword(cfg.Password),
        )
    }
    client, err := mail.NewClient(cfg.Host, opts...)
    if err != nil {
        return nil, fmt.Errorf("smtp client: %w", err)
    }
    return &Mailer{cfg: cfg, send: client.DialAndSendWithContext}, nil
}

// Deliver sends the mail for n.
func (m *Mailer) Deliver(ctx context.Context, n queue.Notification) error {
    msg, err := m.compose(n)
    if err != nil {
        return err
    }
    return m.send(ctx, msg)
}

func (m *Mailer) compose(n queue.Notification) (*mail.Msg, error) {
    msg := mail.NewMsg()
    if err := msg.From(m.cfg.From); err != nil {
        return nil, fmt.Errorf("from address: %w", err)
    }
    switch n.Kind {
    case queue.KindPasswordReset:
        r := n.PasswordReset
        if err := msg.To(r.Email); err != nil {
            return nil, fmt.Errorf("to address: %w", err)
        }
        msg.Subject("Reset your password")
        msg.SetBodyString(mail.TypeTextPlain, resetBody(r))
    case queue.KindContactMessage:
        cm := n.Contact
        if err := msg.To(m.cfg.ContactInbox); err != nil {
            return nil, fmt.Errorf("to address: %w", err)
        }
        if err := msg.ReplyTo(cm.Email); err != nil {
            return nil, fmt.Errorf("reply-to address: %w", err)
        }
        msg.Subject("Contact form: " + cm.Name)
        msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("From: %s <%s>\n\n%s\n", cm.Name, cm.Email, cm.Message))
    default:
        return nil, queue.ErrMalformed
    }
    return msg, nil
}

func resetBody(r *queue.PasswordReset) string {
    var b strings.Builder
    name := r.Username
    if name == "" {
        name = "there"
    }
    fmt.Fprintf(&b, "Hi %s,\n\n", name)
    b.WriteString("Someone asked to reset the password of your account. Follow this link to choose a new one:\n\n")
    b.WriteString(r.Link + "\n\n")
    b.WriteString("The link stops working once it has been used or after it expires. If you did not ask for this, ignore this mail.\n")
    return b.String()
}
