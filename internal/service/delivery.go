package service

import (
	"context"
	"time"

	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
)

// OTPDelivery sends a freshly issued code to its contact
type OTPDelivery interface {
	Deliver(ctx context.Context, contact models.Contact, code string, ttl time.Duration) error
}

// ConsoleDelivery writes codes to the log. It stands in for the SMS gateway.
type ConsoleDelivery struct {
	log *logger.Logger
}

// NewConsoleDelivery creates a delivery that logs codes
func NewConsoleDelivery(log *logger.Logger) *ConsoleDelivery {
	return &ConsoleDelivery{log: log}
}

func (d *ConsoleDelivery) Deliver(ctx context.Context, contact models.Contact, code string, ttl time.Duration) error {
	d.log.Info("OTP issued", "channel", contact.Kind.String(), "contact", contact.Value, "otp", code, "ttl", ttl.String())
	return nil
}

// DeliveryRouter emails codes to email contacts when SES is configured and
// sends everything else to the fallback.
type DeliveryRouter struct {
	email    *EmailService
	fallback OTPDelivery
}

// NewDeliveryRouter creates a router. email may be nil or disabled.
func NewDeliveryRouter(email *EmailService, fallback OTPDelivery) *DeliveryRouter {
	return &DeliveryRouter{email: email, fallback: fallback}
}

func (r *DeliveryRouter) Deliver(ctx context.Context, contact models.Contact, code string, ttl time.Duration) error {
	if contact.IsEmail() && r.email.IsEnabled() {
		return r.email.Deliver(ctx, contact, code, ttl)
	}
	return r.fallback.Deliver(ctx, contact, code, ttl)
}
