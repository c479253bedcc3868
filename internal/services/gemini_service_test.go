package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
)

func newTestGeminiService(baseURL string) *GeminiService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewGeminiService(&config.GeminiConfig{
		APIKey:  "test-api-key",
		Model:   "gemini-2.0-flash",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, logger)
}

func TestBuildPrompt(t *testing.T) {
	t.Run("English Default", func(t *testing.T) {
		prompt := buildPrompt("How do I apply for a ration card?", "", "")
		assert.Contains(t, prompt, "Answer concisely in English")
		assert.Contains(t, prompt, "How do I apply for a ration card?")
		assert.NotContains(t, prompt, "The question is about")
	})

	t.Run("Hindi", func(t *testing.T) {
		prompt := buildPrompt("What documents are needed?", "", "hindi")
		assert.Contains(t, prompt, "Answer concisely in Hindi")
	})

	t.Run("Scoped To Service", func(t *testing.T) {
		prompt := buildPrompt("What is the fee?", "PAN Card", "")
		assert.Contains(t, prompt, `"PAN Card"`)
	})
}

func TestGeminiAsk(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
			assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Visit your nearest CSC centre with Aadhaar."}]}}]}`))
		}))
		defer server.Close()

		svc := newTestGeminiService(server.URL)
		answer, err := svc.Ask(context.Background(), "How do I apply?", "Ration Card", "")
		require.NoError(t, err)
		assert.Equal(t, "Visit your nearest CSC centre with Aadhaar.", answer)
	})

	t.Run("Upstream Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := newTestGeminiService(server.URL)
		answer, err := svc.Ask(context.Background(), "How do I apply?", "", "")
		assert.ErrorIs(t, err, ErrAIUnavailable)
		assert.Empty(t, answer)
	})

	t.Run("Empty Candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		svc := newTestGeminiService(server.URL)
		_, err := svc.Ask(context.Background(), "How do I apply?", "", "")
		assert.ErrorIs(t, err, ErrAIUnavailable)
	})

	t.Run("Missing API Key", func(t *testing.T) {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		svc := NewGeminiService(&config.GeminiConfig{Timeout: time.Second}, logger)

		_, err := svc.Ask(context.Background(), "How do I apply?", "", "")
		assert.Error(t, err)
	})
}
