package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
)

// MockEmailTTL is how long a mock email stays readable in Redis.
const MockEmailTTL = 5 * time.Minute

// MockEmailKey is the Redis key a mock email for recipient and kind is stored under.
func MockEmailKey(recipient, kind string) string {
	return fmt.Sprintf("mockemail:%s:%s", recipient, kind)
}

// MockEmail is the JSON document RedisSender stores.
type MockEmail struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	SentAt  string `json:"sent_at"`
	Kind    string `json:"kind"`
}

// RedisSender implements the Sender interface by storing emails in Redis
// so end-to-end tests can read them back.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// Send stores the message under the first recipient and the notification
// kind recovered from the subject.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	kind := KindFromSubject(subject)
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	jsonData, err := json.Marshal(MockEmail{
		To:      strings.Join(to, ", "),
		From:    s.cfg.SmtpFromAddress,
		Subject: subject,
		Body:    string(rawMessage),
		SentAt:  time.Now().UTC().Format(time.RFC3339Nano),
		Kind:    kind,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := MockEmailKey(primaryTo, kind)
	if err := s.client.Set(ctx, key, jsonData, MockEmailTTL).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, Subject: %s)", key, MockEmailTTL, subject)
	return nil
}
