package domain

import "time"

// Transcript is what a speech-to-text model produces for one audio file.
type Transcript struct {
	Text     string
	Language string
	Duration float64
}

type TranscriptionResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
}

// TranscriptionCompletedEvent is published after a successful transcription.
type TranscriptionCompletedEvent struct {
	Filename   string        `json:"filename"`
	Bytes      int64         `json:"bytes"`
	Characters int           `json:"characters"`
	Language   string        `json:"language,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	At         time.Time     `json:"at"`
}

const SubjectTranscriptionCompleted = "transcription.completed"
