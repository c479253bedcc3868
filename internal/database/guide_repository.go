package database

import (
	"database/sql"

	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// GuideRepository handles the curated government-service guide content
type GuideRepository struct {
	db DB
}

// NewGuideRepository creates a new GuideRepository
func NewGuideRepository(db DB) *GuideRepository {
	return &GuideRepository{db: db}
}

// ListServices returns all government services
func (r *GuideRepository) ListServices() ([]models.GovernmentService, error) {
	query := `
		SELECT id, name, description, created_at
		FROM government_services
		ORDER BY name
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.GovernmentService
	for rows.Next() {
		var s models.GovernmentService
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// GetService returns one government service by id
func (r *GuideRepository) GetService(id int64) (*models.GovernmentService, error) {
	query := `
		SELECT id, name, description, created_at
		FROM government_services
		WHERE id = $1
	`
	s := &models.GovernmentService{}
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListQuestions returns the curated questions for a service
func (r *GuideRepository) ListQuestions(serviceID int64) ([]models.ServiceQuestion, error) {
	query := `
		SELECT id, service_id, question, created_at
		FROM service_questions
		WHERE service_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.ServiceQuestion
	for rows.Next() {
		var q models.ServiceQuestion
		if err := rows.Scan(&q.ID, &q.ServiceID, &q.Question, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetAnswer returns the curated bilingual answer for a question
func (r *GuideRepository) GetAnswer(questionID int64) (*models.ServiceQuestionAnswer, error) {
	query := `
		SELECT a.id, a.question_id, q.question AS question_text, s.name AS service_name,
		       a.answer_english, a.answer_hindi, a.created_at, a.updated_at
		FROM service_question_answers a
		JOIN service_questions q ON q.id = a.question_id
		JOIN government_services s ON s.id = q.service_id
		WHERE a.question_id = $1
	`
	a := &models.ServiceQuestionAnswer{}
	err := r.db.QueryRow(query, questionID).Scan(
		&a.ID, &a.QuestionID, &a.QuestionText, &a.ServiceName,
		&a.AnswerEnglish, &a.AnswerHindi, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}
