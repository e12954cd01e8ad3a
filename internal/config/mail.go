package config

// MailConfig configures the SMTP delivery used by the notification consumer.
type MailConfig struct {
    Host         string
    Port         int
    Username     string
    Password     string
    From         string
    ContactInbox string // recipient of contact-form messages
    TLS          bool   // require STARTTLS instead of opportunistic TLS
}

func LoadMailConfig() MailConfig {
    from := envStr("MAIL_FROM", "no-reply@localhost")
    return MailConfig{
        Host:         envStr("SMTP_HOST", "localhost"),
        Port:         envInt("SMTP_PORT", 587),
        Username:     envStr("SMTP_USERNAME", ""),
        Password:     envStr("SMTP_PASSWORD", ""),
        From:         from,
        ContactInbox: envStr("CONTACT_INBOX", from),
        TLS:          envBool("SMTP_TLS", false),
    }
}
