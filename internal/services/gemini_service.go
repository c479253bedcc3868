package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/bharatabhiyan/marketplace-backend/internal/config"
)

// ErrAIUnavailable is returned when the upstream AI service fails or returns
// an unusable response. Handlers map it to 502.
var ErrAIUnavailable = fmt.Errorf("AI service unavailable")

// GeminiService proxies free-form guide questions to the Gemini
// generateContent API with a bounded timeout
type GeminiService struct {
	config *config.GeminiConfig
	logger *logrus.Logger
	client *http.Client
}

// NewGeminiService creates a new Gemini service
func NewGeminiService(cfg *config.GeminiConfig, logger *logrus.Logger) *GeminiService {
	return &GeminiService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildPrompt frames the user's question as a government-services query in
// the requested answer language
func buildPrompt(question, serviceName, language string) string {
	lang := "English"
	if language == "hindi" {
		lang = "Hindi"
	}

	var b strings.Builder
	b.WriteString("You are a helpful assistant for Indian government services and citizen schemes. ")
	if serviceName != "" {
		fmt.Fprintf(&b, "The question is about the %q service. ", serviceName)
	}
	fmt.Fprintf(&b, "Answer concisely in %s, with practical steps a citizen can follow.\n\nQuestion: %s", lang, question)
	return b.String()
}

// Ask sends a question to Gemini and returns the generated answer text
func (s *GeminiService) Ask(ctx context.Context, question, serviceName, language string) (string, error) {
	if s.config.APIKey == "" {
		return "", fmt.Errorf("AI guide not configured: missing API key")
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildPrompt(question, serviceName, language)}},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal AI request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.config.BaseURL, s.config.Model, s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Gemini request failed")
		return "", ErrAIUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrAIUnavailable
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Gemini returned an error")
		return "", ErrAIUnavailable
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ErrAIUnavailable
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrAIUnavailable
	}

	answer := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if answer == "" {
		return "", ErrAIUnavailable
	}
	return answer, nil
}
