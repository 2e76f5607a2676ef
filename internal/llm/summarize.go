package llm

import "context"

const summarizePrompt = `あなたは介護アセスメントの専門家です。以下の会話は、介護アセスメントの際の利用者、利用者家族、介護士間のやり取りの文字起こしです。
日本語でアセスメントの要約を作成してください。要約は簡潔かつ具体的に、重要なポイントを箇条書きで示し、Markdown形式で出力してください。`

// Summarizer produces a Markdown summary of an assessment conversation.
type Summarizer struct {
	client *Client
}

func NewSummarizer(c *Client) *Summarizer { return &Summarizer{client: c} }

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	return s.client.Chat(ctx, []ChatMessage{
		{Role: RoleSystem, Content: summarizePrompt},
		{Role: RoleUser, Content: transcript},
	})
}
