// Package mail delivers outbound email, synchronously over SMTP or through
// the background job queue.
package mail

import (
	"context"
	"fmt"
	"net/url"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

const resetSubject = "Reset your password"

// PasswordResetMessage builds the reset email. The link carries the token
// and the email address as query parameters.
func PasswordResetMessage(resetURL, email, token string) (Message, error) {
	link, err := url.Parse(resetURL)
	if err != nil {
		return Message{}, fmt.Errorf("parse reset url: %w", err)
	}

	q := link.Query()
	q.Set("token", token)
	q.Set("email", email)
	link.RawQuery = q.Encode()

	body := fmt.Sprintf(
		"We received a request to reset your password.\n\n"+
			"Open the link below within the next hour to choose a new one:\n\n%s\n\n"+
			"If you did not ask for this, you can ignore this email.\n",
		link.String(),
	)

	return Message{To: email, Subject: resetSubject, Body: body}, nil
}
