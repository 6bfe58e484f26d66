package email

import (
	"context"
	"errors"
	"fmt"
)

// CompositeEmailSender delivers every message through each of its senders.
type CompositeEmailSender struct {
	senders []Sender
}

// NewCompositeEmailSender returns the concrete type so AddSender can be called.
func NewCompositeEmailSender(senders ...Sender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

// AddSender adds a sender to the composite sender's list.
func (cs *CompositeEmailSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

// Send calls every sender, even after a failure, and joins the errors.
func (cs *CompositeEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return errors.New("no senders configured in CompositeEmailSender")
	}

	var errs []error
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("composite email send failed: %w", errors.Join(errs...))
	}
	return nil
}
