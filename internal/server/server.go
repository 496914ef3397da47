// Copyright 2025 Kisan Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the assistant over HTTP. Data-source failures
// never surface as HTTP errors; only a missing model key or malformed
// input terminates a request.
package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/your-org/kisan-assistant/internal/assembler"
	"github.com/your-org/kisan-assistant/internal/config"
	"github.com/your-org/kisan-assistant/internal/health"
	"github.com/your-org/kisan-assistant/internal/intent"
	"github.com/your-org/kisan-assistant/internal/llm"
	"github.com/your-org/kisan-assistant/internal/news"
	"github.com/your-org/kisan-assistant/internal/sanitize"
	"github.com/your-org/kisan-assistant/internal/session"
)

// HistoryMessage is one prior turn supplied by the client.
type HistoryMessage struct {
	Who  string `json:"who"`
	Text string `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message             string           `json:"message"`
	Location            string           `json:"location"`
	Crop                string           `json:"crop"`
	SessionID           string           `json:"session_id"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
	DebugReturnContext  bool             `json:"debug_return_context"`
}

// VoiceChatRequest is the body of POST /api/voice-chat.
type VoiceChatRequest struct {
	Transcript          string           `json:"transcript"`
	SessionID           string           `json:"session_id"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
}

// ChatResponse is the reply shape shared by the chat endpoints.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Server wires the request pipeline behind gin handlers.
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	assembler *assembler.Assembler
	completer llm.Completer
	sessions  session.Store
	news      *news.Client
	analyzer  *intent.Analyzer
	health    *health.Manager
}

// Options collects the Server's collaborators. Completer may be nil when
// no API key is configured; affected endpoints then answer 400.
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Assembler *assembler.Assembler
	Completer llm.Completer
	Sessions  session.Store
	News      *news.Client
	Analyzer  *intent.Analyzer
	Health    *health.Manager
}

// New creates a Server from its collaborators.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config:    opts.Config,
		logger:    logger,
		assembler: opts.Assembler,
		completer: opts.Completer,
		sessions:  opts.Sessions,
		news:      opts.News,
		analyzer:  opts.Analyzer,
		health:    opts.Health,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/api/config", s.handleConfig)
	router.GET("/api/news", s.handleNews)
	router.GET("/api/advisories", s.handleAdvisories)
	router.GET("/api/crops/:crop", s.handleCropGuide)
	router.POST("/api/analyze", s.handleAnalyze)
	router.POST("/api/chat", s.handleChat)
	router.POST("/api/voice-chat", s.handleVoiceChat)
	router.POST("/api/chat-with-image", s.handleChatWithImage)

	return router
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	port := "8000"
	if s.config != nil && s.config.Server.Port != "" {
		port = s.config.Server.Port
	}
	s.logger.Info("starting HTTP server", zap.String("port", port))
	return s.Router().Run(":" + port)
}

// handleChat processes one conversational turn.
func (s *Server) handleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}

	// Debug mode inspects the pipeline without a model, so the key check
	// only applies to real turns.
	if !req.DebugReturnContext && s.completer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "LLM API key is required"})
		return
	}

	out := s.assembler.Assemble(c.Request.Context(), assembler.Input{
		Message:      req.Message,
		Location:     req.Location,
		Crop:         req.Crop,
		Conversation: s.sessions.RecentContext(sessionID),
	})

	if req.DebugReturnContext {
		preview := out.DebugContext
		if preview == "" {
			preview = "<no-context>"
		}
		c.JSON(http.StatusOK, ChatResponse{Response: preview, SessionID: sessionID})
		return
	}

	s.sessions.Append(sessionID, session.RoleUser, req.Message)

	answer, err := s.completer.Complete(c.Request.Context(), assembler.ChatPrompt(req.Message, out))
	if err != nil {
		s.logger.Error("chat completion failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing chat: " + err.Error()})
		return
	}

	cleaned := sanitize.Clean(answer)
	s.sessions.Append(sessionID, session.RoleAssistant, cleaned)

	c.JSON(http.StatusOK, ChatResponse{Response: cleaned, SessionID: sessionID})
}

// handleVoiceChat answers a transcribed spoken question. Prior turns come
// from the client rather than server memory.
func (s *Server) handleVoiceChat(c *gin.Context) {
	var req VoiceChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transcript is required"})
		return
	}
	if s.completer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "LLM API key is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewID()
	}

	out := s.assembler.Assemble(c.Request.Context(), assembler.Input{
		Message:      req.Transcript,
		Conversation: renderHistory(req.ConversationHistory),
	})

	answer, err := s.completer.Complete(c.Request.Context(), assembler.ChatPrompt(req.Transcript, out))
	if err != nil {
		s.logger.Error("voice chat completion failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing voice chat: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: sanitize.Clean(answer), SessionID: sessionID})
}

// handleChatWithImage diagnoses a crop photo.
func (s *Server) handleChatWithImage(c *gin.Context) {
	message := strings.TrimSpace(c.PostForm("message"))
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	if s.completer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "LLM API key is required"})
		return
	}

	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		sessionID = session.NewID()
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer func() { _ = file.Close() }()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	prompt := assembler.ImageAnalysisPrompt + "\n\nFarmer's Question: " + message
	answer, err := s.completer.CompleteWithImage(
		c.Request.Context(),
		prompt,
		base64.StdEncoding.EncodeToString(imageData),
		mimeType,
	)
	if err != nil {
		s.logger.Error("image analysis failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing image: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: sanitize.Clean(answer), SessionID: sessionID})
}

// handleConfig exposes what the frontend needs to decide whether to ask
// the user for a key.
func (s *Server) handleConfig(c *gin.Context) {
	name, version := "", ""
	if s.config != nil {
		name = s.config.App.Name
		version = s.config.App.Version
	}
	c.JSON(http.StatusOK, gin.H{
		"has_api_key": s.completer != nil,
		"app_name":    name,
		"app_version": version,
	})
}

// handleNews serves agricultural news, optionally filtered to pesticide
// topics via ?category=pesticide.
func (s *Server) handleNews(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 {
		limit = 5
	}

	var items []news.Item
	if c.Query("category") == "pesticide" {
		items = s.news.PesticideNews(limit)
	} else {
		items = s.news.Fetch(limit)
	}
	if items == nil {
		items = []news.Item{}
	}

	c.JSON(http.StatusOK, gin.H{"news": items, "count": len(items)})
}

// handleAdvisories serves the current pesticide regulatory advisories.
func (s *Server) handleAdvisories(c *gin.Context) {
	advisories := s.news.Advisories()
	c.JSON(http.StatusOK, gin.H{"advisories": advisories, "count": len(advisories)})
}

// handleAnalyze runs the query analyzer on its own, without assembling
// context or calling the model.
func (s *Server) handleAnalyze(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analyzer not configured"})
		return
	}

	c.JSON(http.StatusOK, s.analyzer.Analyze(req.Message))
}

// handleCropGuide serves the static agronomy reference for one crop.
func (s *Server) handleCropGuide(c *gin.Context) {
	c.JSON(http.StatusOK, assembler.GuideFor(c.Param("crop")))
}

// handleHealth reports service and upstream status.
func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": health.StatusHealthy})
		return
	}
	result := s.health.Check(c.Request.Context())
	c.JSON(health.StatusCode(result.Status), result)
}

// renderHistory turns client-supplied turns into the prompt's prior
// conversation block. Only the last five turns are kept.
func renderHistory(history []HistoryMessage) string {
	if len(history) > 5 {
		history = history[len(history)-5:]
	}

	var parts []string
	for _, msg := range history {
		if msg.Text == "" {
			continue
		}
		if msg.Who == "user" {
			parts = append(parts, "User: "+msg.Text)
		} else {
			parts = append(parts, "Assistant: "+msg.Text)
		}
	}
	return strings.Join(parts, "\n")
}
