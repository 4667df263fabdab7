package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryLimit is the number of entries kept in the history table
const HistoryLimit = 100

// HistoryOperation is the kind of request that produced an entry
type HistoryOperation string

const (
	HistoryOperationTranslate  HistoryOperation = "translate"
	HistoryOperationCorrect    HistoryOperation = "correct"
	HistoryOperationPrompt     HistoryOperation = "prompt"
	HistoryOperationTranscribe HistoryOperation = "transcribe"
)

// HistoryEntry is one completed request
type HistoryEntry struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	Operation  HistoryOperation `json:"operation" db:"operation"`
	SourceText string           `json:"source_text" db:"source_text"`
	Result     string           `json:"result" db:"result"`
	TargetLang string           `json:"target_lang" db:"target_lang"`
	Provider   string           `json:"provider" db:"provider"`
	Model      string           `json:"model" db:"model"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the HistoryEntry model
func (HistoryEntry) TableName() string {
	return "translation_history"
}

// NewHistoryEntry creates a new HistoryEntry instance
func NewHistoryEntry(operation HistoryOperation, sourceText, result, targetLang, provider, model string) *HistoryEntry {
	return &HistoryEntry{
		ID:         uuid.New(),
		Operation:  operation,
		SourceText: sourceText,
		Result:     result,
		TargetLang: targetLang,
		Provider:   provider,
		Model:      model,
		CreatedAt:  time.Now().UTC(),
	}
}
