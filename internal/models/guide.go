package models

import "time"

// GovernmentService is a government scheme users can ask about
type GovernmentService struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ServiceQuestion is a curated question about a government service
type ServiceQuestion struct {
	ID        int64     `json:"id" db:"id"`
	ServiceID int64     `json:"service_id" db:"service_id"`
	Question  string    `json:"question" db:"question"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ServiceQuestionAnswer holds the curated bilingual answer for a question
type ServiceQuestionAnswer struct {
	ID            int64     `json:"id" db:"id"`
	QuestionID    int64     `json:"question_id" db:"question_id"`
	QuestionText  string    `json:"question,omitempty" db:"question_text"`
	ServiceName   string    `json:"service_name,omitempty" db:"service_name"`
	AnswerEnglish string    `json:"answer_english" db:"answer_english"`
	AnswerHindi   string    `json:"answer_hindi" db:"answer_hindi"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AnswerFor returns the answer in the requested language, defaulting to english
func (a *ServiceQuestionAnswer) AnswerFor(language string) string {
	if language == "hindi" {
		return a.AnswerHindi
	}
	return a.AnswerEnglish
}
