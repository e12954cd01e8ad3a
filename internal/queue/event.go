// Package queue defines the notification messages exchanged over the broker
// and the consumer that delivers them.
package queue

import (
    "errors"
    "time"
)

// NotificationsQueue is the durable queue both publisher and consumer declare.
const NotificationsQueue = "notifications.outbound"

// Notification kinds.
const (
    KindPasswordReset  = "password_reset"
    KindContactMessage = "contact_message"
)

// Notification is one outbound message. Exactly one payload matches Kind.
type Notification struct {
    Kind          string          `json:"kind"`
    CreatedAt     time.Time       `json:"created_at"`
    PasswordReset *PasswordReset  `json:"password_reset,omitempty"`
    Contact       *ContactMessage `json:"contact,omitempty"`
}

// PasswordReset carries the link a user follows to choose a new password.
type PasswordReset struct {
    Email    string `json:"email"`
    Username string `json:"username"`
    Link     string `json:"link"`
}

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
    Name    string `json:"name"`
    Email   string `json:"email"`
    Message string `json:"message"`
}

var ErrMalformed = errors.New("malformed notification")

// Validate rejects notifications a consumer could never deliver.
func (n Notification) Validate() error {
    switch n.Kind {
    case KindPasswordReset:
        if n.PasswordReset == nil || n.PasswordReset.Email == "" || n.PasswordReset.Link == "" {
            return ErrMalformed
        }
    case KindContactMessage:
        if n.Contact == nil || n.Contact.Email == "" || n.Contact.Message == "" {
            return ErrMalformed
        }
    default:
        return ErrMalformed
    }
    return nil
}

func NewPasswordReset(email, username, link string) Notification {
    return Notification{
        Kind:          KindPasswordReset,
        CreatedAt:     time.Now().UTC(),
        PasswordReset: &PasswordReset{Email: email, Username: username, Link: link},
    }
}

func NewContactMessage(name, email, message string) Notification {
    return Notification{
        Kind:      KindContactMessage,
        CreatedAt: time.Now().UTC(),
        Contact:   &ContactMessage{Name: name, Email: email, Message: message},
    }
}
