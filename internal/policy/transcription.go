package policy

// AppendTranscription joins incoming onto existing with a newline; an empty or
// missing existing value yields incoming alone.
func AppendTranscription(existing *string, incoming string) *string {
	if existing == nil || *existing == "" {
		return &incoming
	}
	joined := *existing + "\n" + incoming
	return &joined
}

// ReplaceTranscription overwrites whatever was stored.
func ReplaceTranscription(incoming string) *string {
	return &incoming
}

// ClearTranscription always empties the field.
func ClearTranscription() *string {
	return nil
}
