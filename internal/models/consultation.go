package models

import "time"

// PatientData is the identity the student gathered from the AI patient
type PatientData struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender"`
	Occupation  string `json:"occupation"`
	Address     string `json:"address"`
}

// ConsultationFindings is the clinical-history section of a consultation form
type ConsultationFindings struct {
	ChiefComplaint    string `json:"chiefComplaint"`
	PresentIllness    string `json:"presentIllness"`
	PastIllness       string `json:"pastIllness"`
	Allergies         string `json:"allergies"`
	Medications       string `json:"medications"`
	PreviousSurgeries string `json:"previousSurgeries"`
}

// ConsultationRecommendations is the plan section of a consultation form
type ConsultationRecommendations struct {
	TreatmentPlan        string `json:"treatmentPlan"`
	FollowUpInstructions string `json:"followUpInstructions"`
	AdditionalNotes      string `json:"additionalNotes"`
}

// ChatMessage is one turn of an AI patient conversation
type ChatMessage struct {
	Sender  string `json:"sender"` // "user" or "patient"
	Message string `json:"message"`
}

// Consultation is a submitted AI-patient assessment, retrievable by the
// room's teacher for feedback.
type Consultation struct {
	ID              string                      `json:"id"`
	UserID          string                      `json:"userId"`
	RoomCode        string                      `json:"roomCode,omitempty"`
	StudentName     string                      `json:"studentName,omitempty"`
	PatientName     string                      `json:"patientName"`
	PatientData     PatientData                 `json:"patientData"`
	Findings        ConsultationFindings        `json:"findings"`
	Recommendations ConsultationRecommendations `json:"recommendations"`
	Conversation    []ChatMessage               `json:"conversationHistory,omitempty"`
	SubmissionType  string                      `json:"submissionType,omitempty"`
	TeacherFeedback *string                     `json:"teacherFeedback"`
	Score           *float64                    `json:"score"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}
