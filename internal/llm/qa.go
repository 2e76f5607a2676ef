package llm

import "context"

const qaPrompt = `あなたは質疑応答の文字起こしテキストから質問と回答のペアを抽出する専門家です。
与えられた文字起こしから、すべての質問と回答のペアを抽出してください。

以下のルールに従ってください：
1. 質問と回答のペアを要約して抽出してください
2. 質問が明確に特定できる場合のみ抽出してください
3. 回答がない質問の場合は、回答をnullとしてください
4. 質問と回答は元の文脈を保持してください
5. だ、である調に書き換えてください
6. 文字起こしのミスと思われる部分は、適切に修正してください。
出力は質問と回答のペアの配列として構造化してください。`

// QAPair 抽取出的问题与回答
type QAPair struct {
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

// QAExtractor pulls question/answer pairs out of an interview transcript.
type QAExtractor struct {
	client *Client
}

func NewQAExtractor(c *Client) *QAExtractor { return &QAExtractor{client: c} }

func (e *QAExtractor) ExtractPairs(ctx context.Context, transcript string) ([]QAPair, error) {
	schema := object(map[string]any{
		"data": array(object(map[string]any{
			"question": map[string]any{"type": "string", "description": "質問"},
			"answer":   nullable("string", "回答"),
		})),
	})
	var out struct {
		Data []QAPair `json:"data"`
	}
	err := e.client.ChatJSON(ctx, []ChatMessage{
		{Role: RoleSystem, Content: qaPrompt},
		{Role: RoleUser, Content: "文字起こし: " + transcript},
	}, "question_answers", schema, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}
