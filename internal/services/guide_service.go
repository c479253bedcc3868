package services

import (
	"context"
	"fmt"

	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var (
	// ErrServiceNotFound indicates an unknown government service id
	ErrServiceNotFound = fmt.Errorf("government service not found")

	// ErrAnswerNotFound indicates the question has no curated answer
	ErrAnswerNotFound = fmt.Errorf("answer not found")
)

// GuideService serves the government-services guide: curated questions and
// answers backed by the database, plus AI answers for free-form questions.
type GuideService struct {
	repo      *database.GuideRepository
	ai        *GeminiService
	rateLimit *RateLimitService
}

// NewGuideService creates a new guide service
func NewGuideService(repo *database.GuideRepository, ai *GeminiService, rateLimit *RateLimitService) *GuideService {
	return &GuideService{
		repo:      repo,
		ai:        ai,
		rateLimit: rateLimit,
	}
}

// Services lists the government services users can ask about
func (s *GuideService) Services() ([]models.GovernmentService, error) {
	return s.repo.ListServices()
}

// Questions lists the curated questions for a service
func (s *GuideService) Questions(serviceID int64) ([]models.ServiceQuestion, error) {
	if _, err := s.repo.GetService(serviceID); err != nil {
		if err == database.ErrNotFound {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	return s.repo.ListQuestions(serviceID)
}

// Answer returns the curated answer for a question in the requested language
func (s *GuideService) Answer(questionID int64, language string) (*models.ServiceQuestionAnswer, string, error) {
	answer, err := s.repo.GetAnswer(questionID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, "", ErrAnswerNotFound
		}
		return nil, "", fmt.Errorf("failed to load answer: %w", err)
	}
	return answer, answer.AnswerFor(language), nil
}

// Ask proxies a free-form question to the AI, optionally scoped to a known
// government service for better context. Requests count against the guide
// rate limit.
func (s *GuideService) Ask(ctx context.Context, identifier, ip, question string, serviceID int64, language string) (string, error) {
	if err := s.rateLimit.CheckGuideLimit(identifier, ip); err != nil {
		return "", err
	}

	serviceName := ""
	if serviceID > 0 {
		service, err := s.repo.GetService(serviceID)
		if err != nil {
			if err == database.ErrNotFound {
				return "", ErrServiceNotFound
			}
			return "", fmt.Errorf("failed to load service: %w", err)
		}
		serviceName = service.Name
	}

	answer, err := s.ai.Ask(ctx, question, serviceName, language)
	if err != nil {
		return "", err
	}

	_ = s.rateLimit.RecordGuideRequest(identifier, ip)

	return answer, nil
}
