// Package notify delivers operational notifications. Delivery is
// fire-and-forget: a failed notification is logged and dropped, it never
// influences the request that triggered it.
package notify

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"shopward/internal/pkg/billing"
	"shopward/internal/pkg/env"
	"shopward/internal/pkg/identity"
	"shopward/internal/pkg/mail"
)

// Notifier is the sink the authorization pipeline reports inactive charges
// to.
type Notifier interface {
	NotifyInactiveCharge(user *identity.AppUser, status billing.ChargeStatus)
}

// MailNotifier emails the operations address configured in
// NOTIFY_RECIPIENT.
type MailNotifier struct {
	Recipient string
}

// NewMailNotifierFromEnv builds a mail notifier from the environment.
func NewMailNotifierFromEnv() *MailNotifier {
	return &MailNotifier{
		Recipient: env.GetEnv("NOTIFY_RECIPIENT", ""),
	}
}

// NotifyInactiveCharge reports that a tenant's recurring charge left the
// active state. Runs on its own goroutine and swallows every failure.
func (n *MailNotifier) NotifyInactiveCharge(user *identity.AppUser, status billing.ChargeStatus) {
	if n.Recipient == "" {
		log.Printf("NOTIFY_RECIPIENT not set, dropping inactive charge notification for tenant %d", user.ID)
		return
	}

	ref := uuid.NewString()
	subject := fmt.Sprintf("[shopward] inactive charge (%s) for %s", status, user.ShopDomain)
	body := fmt.Sprintf(
		"<p>Tenant %d (%s) reported charge status <b>%s</b>.</p><p>Reference: %s</p>",
		user.ID, user.ShopDomain, status, ref,
	)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("inactive charge notification panicked: %v", r)
			}
		}()
		if err := mail.SendMail(n.Recipient, subject, body); err != nil {
			log.Printf("inactive charge notification failed (ref %s): %v", ref, err)
		}
	}()
}
