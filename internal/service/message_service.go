package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/skilldesk/lms-api/internal/dto"
	"github.com/skilldesk/lms-api/internal/models"
	"github.com/skilldesk/lms-api/internal/repository"
)

const messageSendBufferSize = 32

// MessageConnectionOptions wraps metadata extracted during the HTTP upgrade.
type MessageConnectionOptions struct {
	UserID        uint
	CorrelationID string
	Context       context.Context
}

// MessageService persists direct messages between students and admins and
// delivers them live to connected peers. Delivery is a pass-through
// notification, not a guaranteed queue: the persisted row is the source
// of truth and offline users catch up through the conversation fetch.
type MessageService interface {
	Send(ctx context.Context, senderID uint, payload dto.SendMessageRequest) (dto.MessageResponse, error)
	Conversation(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error)
	ServeConnection(conn *websocket.Conn, opts MessageConnectionOptions)
	Start(ctx context.Context)
}

type messageService struct {
	repo        repository.MessageRepository
	users       repository.UserRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	registry    *sessionRegistry
	nodeID      string
}

// sessionRegistry maps a user id to its active websocket session. Insert
// on connect, remove on disconnect, lookup on send; all three are guarded
// by the registry's own lock rather than a bare shared map.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uint]*messageSession
}

type messageSession struct {
	userID uint
	conn   *websocket.Conn
	send   chan dto.MessageResponse
	closed chan struct{}
	once   sync.Once
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[uint]*messageSession)}
}

func (r *sessionRegistry) insert(session *messageSession) *messageSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.sessions[session.userID]
	r.sessions[session.userID] = session
	return previous
}

func (r *sessionRegistry) remove(session *messageSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[session.userID]; ok && current == session {
		delete(r.sessions, session.userID)
	}
}

func (r *sessionRegistry) lookup(userID uint) (*messageSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[userID]
	return session, ok
}

func (s *messageSession) close() {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

type messageEvent struct {
	Source  string              `json:"source"`
	Message dto.MessageResponse `json:"message"`
	SentAt  time.Time           `json:"sent_at"`
}

// NewMessageService creates a direct-messaging service instance. The Redis
// and NATS connections are optional; without them delivery stays local to
// this node.
func NewMessageService(repo repository.MessageRepository, users repository.UserRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, validate *validator.Validate, logger zerolog.Logger) MessageService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":messages"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".messages"
	}

	return &messageService{
		repo:        repo,
		users:       users,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "message_service").Logger(),
		tracer:      otel.Tracer("github.com/skilldesk/lms-api/internal/service/message"),
		sanitizer:   bluemonday.StrictPolicy(),
		registry:    newSessionRegistry(),
		nodeID:      uuid.NewString(),
	}
}

func (s *messageService) Send(ctx context.Context, senderID uint, payload dto.SendMessageRequest) (dto.MessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "message.send", trace.WithAttributes(
		attribute.Int("sender.id", int(senderID)),
		attribute.Int("receiver.id", int(payload.To)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		return dto.MessageResponse{}, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, ErrUserNotFound
		}
		return dto.MessageResponse{}, err
	}

	receiver, err := s.users.GetByID(ctx, payload.To)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, ErrUserNotFound
		}
		return dto.MessageResponse{}, err
	}

	// Conversations cross the student/admin boundary only.
	if strings.EqualFold(sender.Role, receiver.Role) {
		return dto.MessageResponse{}, ErrMessageForbidden
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.Text))
	if text == "" {
		return dto.MessageResponse{}, ErrEmptyMessage
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: payload.To,
		Text:       text,
	}

	if err := s.repo.Create(ctx, &message); err != nil {
		return dto.MessageResponse{}, err
	}

	created, err := s.repo.GetByID(ctx, message.ID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	response := dto.NewMessageResponse(created)

	s.deliverLocal(response)
	s.publish(ctx, response)

	s.logger.Info().
		Uint("message_id", created.ID).
		Uint("sender_id", senderID).
		Uint("receiver_id", payload.To).
		Msg("message sent")

	return response, nil
}

func (s *messageService) Conversation(ctx context.Context, userID, otherID uint) ([]dto.MessageResponse, error) {
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	messages, err := s.repo.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

// deliverLocal pushes the message to the receiver's session on this node,
// if connected. Dropped when the session's buffer is full.
func (s *messageService) deliverLocal(message dto.MessageResponse) {
	session, ok := s.registry.lookup(message.Receiver.ID)
	if !ok {
		return
	}

	select {
	case session.send <- message:
	default:
		s.logger.Warn().Uint("receiver_id", message.Receiver.ID).Msg("session buffer full, dropping live delivery")
	}
}

func (s *messageService) publish(ctx context.Context, message dto.MessageResponse) {
	event := messageEvent{
		Source:  s.nodeID,
		Message: message,
		SentAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish message event to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish message event to nats")
		}
	}
}

// Start subscribes to the cross-node message streams and delivers events
// published by other nodes to locally connected receivers. Redis and NATS
// consumption run independently so either backend alone is enough.
func (s *messageService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}

	if s.nats != nil && s.natsSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *messageService) consumeRedis(ctx context.Context) {
	subscription := s.redis.Subscribe(ctx, s.redisStream)
	defer subscription.Close()

	channel := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-channel:
			if !ok {
				return
			}
			s.handleEvent([]byte(payload.Payload))
		}
	}
}

func (s *messageService) consumeNATS(ctx context.Context) {
	// Plain Subscribe, not a queue group: every node must see every
	// event so each can deliver to its own connected receivers.
	subscription, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats message subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := subscription.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain nats message subscription")
		}
	}()
}

// handleEvent is the shared consumption path for both backends. Events
// published by this node are skipped: local delivery already happened
// synchronously during Send.
func (s *messageService) handleEvent(data []byte) {
	var event messageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid message event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.deliverLocal(event.Message)
}

func (s *messageService) ServeConnection(conn *websocket.Conn, opts MessageConnectionOptions) {
	session := &messageSession{
		userID: opts.UserID,
		conn:   conn,
		send:   make(chan dto.MessageResponse, messageSendBufferSize),
		closed: make(chan struct{}),
	}

	if previous := s.registry.insert(session); previous != nil {
		previous.close()
	}

	logger := s.logger.With().Uint("user_id", opts.UserID).Str("correlation_id", opts.CorrelationID).Logger()
	logger.Info().Msg("messaging session connected")

	go func() {
		for {
			select {
			case <-session.closed:
				return
			case message, ok := <-session.send:
				if !ok {
					return
				}
				if err := conn.WriteJSON(message); err != nil {
					session.close()
					return
				}
			}
		}
	}()

	// Inbound frames are not used for sending (that goes through the REST
	// endpoint); the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	session.close()
	s.registry.remove(session)
	logger.Info().Msg("messaging session disconnected")
}
