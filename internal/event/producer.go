package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/domain"
	pkgkafka "github.com/priyabakthisaran/SocialNetworkClone/pkg/kafka"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/logger"
)

// Kafka topic constants for user domain events.
const (
	TopicUserRegistered = "social.user.registered"
	TopicUserLoggedIn   = "social.user.logged_in"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// SourceAuthService identifies events originating from this service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	Role     string `json:"role"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	ID         string    `json:"id"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Publisher sends an envelope to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes user domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer. A nil publisher drops every
// event, which is how the service runs without Kafka brokers.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, userID string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, userID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Gender:   user.Gender,
		Role:     user.Role,
	})
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicUserLoggedIn, userID, UserLoggedInData{
		ID:         userID,
		LoggedInAt: time.Now().UTC(),
	})
}
