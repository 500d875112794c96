// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Category groups questions by the kind of reasoning they exercise.
type Category string

const (
	CategoryArithmetic Category = "arithmetic"
	CategoryLogic      Category = "logic"
	CategoryMultiStep  Category = "multi_step"
)

// Difficulty is the author-assigned difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AnswerType selects how the parsed answer is compared to the expected one.
type AnswerType string

const (
	AnswerNumeric AnswerType = "numeric"
	AnswerText    AnswerType = "text"
)

// QuestionRecord is one immutable entry of the question dataset.
type QuestionRecord struct {
	// ID uniquely identifies the question (e.g. "arith_001").
	ID string `json:"id" yaml:"id"`

	// Category is one of arithmetic, logic, multi_step.
	Category Category `json:"category" yaml:"category"`

	// Difficulty is one of easy, medium, hard.
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	// Question is the literal question text inserted into the prompt.
	Question string `json:"question" yaml:"question"`

	// Answer is the expected answer as written in the dataset.
	Answer string `json:"answer" yaml:"answer"`

	// AnswerType is numeric or text.
	AnswerType AnswerType `json:"answer_type" yaml:"answer_type"`
}
