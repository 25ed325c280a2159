// Package server provides a development chat server speaking the tapechat
// wire protocol. Conversations are recorded per user in a content-addressed
// merkle log.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/chat"
	"github.com/papercomputeco/tapechat/pkg/merkle"
)

// Server is a development chat server.
type Server struct {
	config    Config
	storer    merkle.Storer
	responder Responder
	logger    *zap.Logger
	app       *fiber.App

	// heads maps a user id to the hash of the newest message of their
	// conversation.
	mu    sync.Mutex
	heads map[string]string
}

// New creates a new Server answering with a RuleResponder.
func New(config Config, logger *zap.Logger) (*Server, error) {
	var storer merkle.Storer
	var err error

	if config.DBPath != "" {
		storer, err = merkle.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", config.DBPath))
	} else {
		storer = merkle.NewMemoryStorer()
		logger.Info("using in-memory storage")
	}

	s, err := newServer(config, storer, RuleResponder{}, logger)
	if err != nil {
		storer.Close()
		return nil, err
	}
	return s, nil
}

func newServer(config Config, storer merkle.Storer, responder Responder, logger *zap.Logger) (*Server, error) {
	if config.Model == "" {
		config.Model = "echo"
	}

	s := &Server{
		config:    config,
		storer:    storer,
		responder: responder,
		logger:    logger,
		heads:     make(map[string]string),
	}

	if err := s.loadHeads(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	app.Get("/health", s.handleHealth)

	api := app.Group("/api/v1", s.requireBearer)
	if config.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        config.RateLimit,
			Expiration: time.Second,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(chat.ErrorResponse{Error: "Rate limit exceeded"})
			},
		}))
	}
	api.Post("/chat", s.handleChat)
	api.Get("/history/:user_id", s.handleHistory)

	s.app = app
	return s, nil
}

// Run starts the server on the configured listening address
func (s *Server) Run() error {
	s.logger.Info("starting chat server",
		zap.String("listen", s.config.ListenAddr),
		zap.Bool("auth", s.config.AuthToken != ""),
		zap.Int("rate_limit", s.config.RateLimit),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting chat server", zap.String("listen", ln.Addr().String()))
	return s.app.Listener(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close releases the conversation store.
func (s *Server) Close() error {
	return s.storer.Close()
}

// loadHeads rebuilds the per-user conversation heads from a persisted store.
func (s *Server) loadHeads(ctx context.Context) error {
	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return err
	}
	for _, leaf := range leaves {
		s.heads[leaf.Bucket.UserID] = leaf.Hash
	}
	return nil
}

// requireBearer enforces the configured bearer token, if any.
func (s *Server) requireBearer(c *fiber.Ctx) error {
	if s.config.AuthToken == "" {
		return c.Next()
	}

	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(chat.ErrorResponse{Error: "Missing bearer token"})
	}
	if strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")) != s.config.AuthToken {
		s.logger.Warn("rejected chat request with invalid token", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusForbidden).JSON(chat.ErrorResponse{Error: "Invalid token"})
	}
	return c.Next()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(map[string]string{"status": "ok", "model": s.config.Model})
}

// handleChat answers one turn and records it in the user's conversation.
func (s *Server) handleChat(c *fiber.Ctx) error {
	startTime := time.Now()

	var req chat.TurnRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(chat.ErrorResponse{Error: "invalid request body"})
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(chat.ErrorResponse{Error: "user_id is required"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(chat.ErrorResponse{Error: "message is required"})
	}

	s.logger.Debug("received chat request",
		zap.String("user_id", req.UserID),
		zap.String("message_preview", truncate(req.Message, 50)),
	)

	reply := s.responder.Respond(c.UserContext(), req.UserID, req.Message)

	headHash, err := s.storeTurn(c.UserContext(), req, reply)
	if err != nil {
		s.logger.Error("failed to store conversation", zap.Error(err))
		// Continue - don't fail the request just because storage failed
	} else {
		s.logger.Info("conversation stored",
			zap.String("user_id", req.UserID),
			zap.String("head_hash", truncate(headHash, 16)),
			zap.Duration("duration", time.Since(startTime)),
		)
	}

	resp := chat.TurnResponse{
		Answer:         reply.Answer,
		UsedTool:       reply.Tool,
		ModelLatencyMs: millis(reply.ModelLatency),
	}
	if reply.Tool != "" {
		resp.ToolLatencyMs = millis(reply.ToolLatency)
	}

	return c.JSON(resp)
}

// storeTurn appends the user message and the reply to the user's chain and
// returns the new head hash.
func (s *Server) storeTurn(ctx context.Context, req chat.TurnRequest, reply Reply) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parent *merkle.Node
	if head, ok := s.heads[req.UserID]; ok {
		node, err := s.storer.Get(ctx, head)
		if err != nil {
			return "", fmt.Errorf("loading conversation head: %w", err)
		}
		parent = node
	}

	userNode := merkle.NewNode(merkle.Bucket{
		Type:    "message",
		UserID:  req.UserID,
		Role:    "user",
		Content: req.Message,
	}, parent)
	if _, err := s.storer.Put(ctx, userNode); err != nil {
		return "", fmt.Errorf("storing message node: %w", err)
	}

	replyNode := merkle.NewNode(merkle.Bucket{
		Type:    "message",
		UserID:  req.UserID,
		Role:    "assistant",
		Content: reply.Answer,
		Tool:    reply.Tool,
	}, userNode)
	if _, err := s.storer.Put(ctx, replyNode); err != nil {
		return "", fmt.Errorf("storing response node: %w", err)
	}

	s.heads[req.UserID] = replyNode.Hash
	return replyNode.Hash, nil
}

// HistoryResponse contains a user's conversation.
type HistoryResponse struct {
	UserID string `json:"user_id"`
	// HeadHash is the hash of the newest message, empty for unknown users
	HeadHash string `json:"head_hash,omitempty"`
	// Messages in chronological order (oldest first)
	Messages []HistoryMessage `json:"messages"`
}

// HistoryMessage represents a message in the conversation history.
type HistoryMessage struct {
	Hash    string `json:"hash"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Tool    string `json:"tool,omitempty"`
}

// handleHistory returns the full conversation of a user.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	s.mu.Lock()
	head, ok := s.heads[userID]
	s.mu.Unlock()

	resp := HistoryResponse{UserID: userID, Messages: []HistoryMessage{}}
	if !ok {
		return c.JSON(resp)
	}

	// Newest first; reverse into chronological order
	ancestry, err := s.storer.Ancestry(c.UserContext(), head)
	if err != nil {
		s.logger.Error("failed to build history", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(chat.ErrorResponse{Error: "failed to load history"})
	}

	resp.HeadHash = head
	resp.Messages = make([]HistoryMessage, len(ancestry))
	for i, node := range ancestry {
		resp.Messages[len(ancestry)-1-i] = HistoryMessage{
			Hash:    node.Hash,
			Role:    node.Bucket.Role,
			Content: node.Bucket.Content,
			Tool:    node.Bucket.Tool,
		}
	}

	return c.JSON(resp)
}

func millis(d time.Duration) *float64 {
	ms := float64(d) / float64(time.Millisecond)
	return &ms
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
