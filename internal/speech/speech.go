// Package speech converts uploaded audio into text, optionally split by speaker.
package speech

import (
	"context"
	"io"
	"strings"
)

// MaxAudioBytes is the upload limit accepted by the transcription endpoints.
const MaxAudioBytes = 25 << 20

// Audio is one uploaded file.
type Audio struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Transcriber turns audio into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// Diarizer returns speaker-attributed runs.
type Diarizer interface {
	Diarize(ctx context.Context, audio Audio) ([]Utterance, error)
}

// Word is a diarized token; spacing tokens carry the whitespace between words.
type Word struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	SpeakerID string `json:"speaker_id"`
}

// Utterance 同一话者的连续发言
type Utterance struct {
	SpeakerID string `json:"speakerId"`
	Text      string `json:"text"`
}

// MergeSpeakerRuns joins consecutive words of the same speaker into one utterance.
// Spacing tokens attach to the current run and never start a new one.
func MergeSpeakerRuns(words []Word) []Utterance {
	var out []Utterance
	var b strings.Builder
	current := ""
	started := false

	flush := func() {
		if !started {
			return
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			out = append(out, Utterance{SpeakerID: current, Text: text})
		}
		b.Reset()
	}

	for _, w := range words {
		if w.Type == "spacing" {
			if started {
				b.WriteString(w.Text)
			}
			continue
		}
		if !started || w.SpeakerID != current {
			flush()
			current = w.SpeakerID
			started = true
		}
		b.WriteString(w.Text)
	}
	flush()
	return out
}
