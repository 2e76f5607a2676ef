package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(config.OpenAIConfig{
		APIKey:         "test-key",
		BaseURL:        srv.URL,
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-large",
	}, zap.NewNop())
	c.httpClient.SetRetryCount(0)
	return c
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func TestFoodExtractor_SendsStateAndDecodesNulls(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"mealTime":null,"mainCoursePercentage":80,"sideDishPercentage":null,` +
			`"soupPercentage":null,"beverageType":"TEA","beverageVolume":null,"notes":null}`)))
	})

	rec := &domain.FoodRecord{MealTime: domain.MealLunch, MainCoursePercentage: 50}
	out, err := NewFoodExtractor(c).Extract(context.Background(), "主食は八割食べました。お茶を飲みました。", rec)
	require.NoError(t, err)

	require.NotNil(t, out.MainCoursePercentage)
	assert.Equal(t, 80, *out.MainCoursePercentage)
	require.NotNil(t, out.BeverageType)
	assert.Equal(t, domain.BeverageTea, *out.BeverageType)
	assert.Nil(t, out.SideDishPercentage)
	assert.Nil(t, out.MealTime)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, `"mealTime":"LUNCH"`)
	assert.Contains(t, got.Messages[1].Content, "文字起こし: 主食は八割")
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.0, *got.Temperature)
}

func TestAssessmentExtractor_SchemaRequiresEveryField(t *testing.T) {
	ex := NewAssessmentExtractor(nil)
	required := ex.schema["required"].([]string)
	assert.Len(t, required, 3+len(assessmentTextDescriptions))
	assert.Contains(t, required, "personalTraits")
	assert.Equal(t, false, ex.schema["additionalProperties"])

	var text domain.AssessmentText
	assert.Len(t, text.Fields(), len(assessmentTextDescriptions))
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	})

	_, err := c.Chat(context.Background(), []ChatMessage{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestClient_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_EmbedOrdersByIndex(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-large", req.Model)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0.2]},{"index":0,"embedding":[0.1]}]}`))
	})

	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, vecs)
}

func TestSummarizer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(body), "介護アセスメントの専門家"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply("- 要介護2\n- 独居")))
	})

	out, err := NewSummarizer(c).Summarize(context.Background(), "会話")
	require.NoError(t, err)
	assert.Equal(t, "- 要介護2\n- 独居", out)
}

func TestQAExtractor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"data":[{"question":"朝食は食べたか","answer":"食べた"},{"question":"痛みはあるか","answer":null}]}`)))
	})

	pairs, err := NewQAExtractor(c).ExtractPairs(context.Background(), "…")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "食べた", *pairs[0].Answer)
	assert.Nil(t, pairs[1].Answer)
}
