package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

type fakePairExtractor struct {
	got string
}

func (e *fakePairExtractor) ExtractPairs(_ context.Context, transcript string) ([]llm.QAPair, error) {
	e.got = transcript
	answer := "毎朝散歩している"
	return []llm.QAPair{{Question: "運動習慣は", Answer: &answer}, {Question: "持病は"}}, nil
}

func TestQASessions(t *testing.T) {
	f := newFixture(t)
	svc := NewQAService(repository.NewMemoryQARepo(), nil, nil, zap.NewNop())

	_, err := svc.CreateSession(f.ctx, f.care1, SessionRequest{})
	requireStatus(t, http.StatusBadRequest, err)
	sess, err := svc.CreateSession(f.ctx, f.care1, SessionRequest{Title: "初回面談"})
	require.NoError(t, err)
	assert.Empty(t, sess.QuestionAnswers)

	_, err = svc.GetSession(f.ctx, f.care2, sess.UID)
	requireStatus(t, http.StatusForbidden, err)

	qa, err := svc.AddQuestionAnswer(f.ctx, f.care1, sess.UID, QuestionAnswerRequest{Question: "食事の好みは"})
	require.NoError(t, err)
	assert.Nil(t, qa.Answer)
	_, err = svc.AddQuestionAnswer(f.ctx, f.care2, sess.UID, QuestionAnswerRequest{Question: "x"})
	requireStatus(t, http.StatusForbidden, err)

	updated, err := svc.UpdateQuestionAnswer(f.ctx, f.care1, qa.UID, UpdateQuestionAnswerRequest{Answer: ptr("和食")})
	require.NoError(t, err)
	assert.Equal(t, "食事の好みは", updated.Question)
	assert.Equal(t, "和食", *updated.Answer)
	updated, err = svc.UpdateQuestionAnswer(f.ctx, f.care1, qa.UID, UpdateQuestionAnswerRequest{Question: ptr("好きな食事は")})
	require.NoError(t, err)
	assert.Equal(t, "好きな食事は", updated.Question)
	assert.Equal(t, "和食", *updated.Answer)
	_, err = svc.UpdateQuestionAnswer(f.ctx, f.care1, qa.UID, UpdateQuestionAnswerRequest{Question: ptr("  ")})
	requireStatus(t, http.StatusBadRequest, err)
	_, err = svc.UpdateQuestionAnswer(f.ctx, f.care2, qa.UID, UpdateQuestionAnswerRequest{Question: ptr("x")})
	requireStatus(t, http.StatusForbidden, err)

	replaced, err := svc.UpsertQuestionAnswers(f.ctx, f.care1, sess.UID, UpsertQuestionAnswersRequest{
		QuestionAnswers: []QuestionAnswerRequest{{Question: "Q1"}, {Question: "Q2", Answer: ptr("A2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, replaced.Total)

	full, err := svc.GetSession(f.ctx, f.care1, sess.UID)
	require.NoError(t, err)
	require.Len(t, full.QuestionAnswers, 2)
	assert.Equal(t, "Q1", full.QuestionAnswers[0].Question)
	assert.Equal(t, "Q2", full.QuestionAnswers[1].Question)

	_, err = svc.UpsertQuestionAnswers(f.ctx, f.care1, sess.UID, UpsertQuestionAnswersRequest{
		QuestionAnswers: []QuestionAnswerRequest{{Question: ""}},
	})
	requireStatus(t, http.StatusBadRequest, err)

	requireStatus(t, http.StatusNotFound, svc.DeleteQuestionAnswer(f.ctx, f.care1, qa.UID))
	require.NoError(t, svc.DeleteQuestionAnswer(f.ctx, f.care1, full.QuestionAnswers[0].UID))

	list, err := svc.ListSessions(f.ctx, f.care1)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	requireStatus(t, http.StatusForbidden, svc.DeleteSession(f.ctx, f.care2, sess.UID))
	require.NoError(t, svc.DeleteSession(f.ctx, f.care1, sess.UID))
	_, err = svc.GetSession(f.ctx, f.care1, sess.UID)
	requireStatus(t, http.StatusNotFound, err)
}

func TestQAExtractPairs(t *testing.T) {
	f := newFixture(t)
	ex := &fakePairExtractor{}
	svc := NewQAService(repository.NewMemoryQARepo(), ex, f.metrics, zap.NewNop())
	sess, err := svc.CreateSession(f.ctx, f.care1, SessionRequest{Title: "面談"})
	require.NoError(t, err)

	_, err = svc.ExtractQAPairs(f.ctx, f.care1, sess.UID)
	requireStatus(t, http.StatusBadRequest, err)

	tr, err := svc.UpdateTranscription(f.ctx, f.care1, sess.UID, "運動は？毎朝散歩している。持病は？")
	require.NoError(t, err)
	require.NotNil(t, tr.Transcription)

	out, err := svc.ExtractQAPairs(f.ctx, f.care1, sess.UID)
	require.NoError(t, err)
	require.Len(t, out.QuestionAnswers, 2)
	assert.Nil(t, out.QuestionAnswers[1].Answer)
	assert.Equal(t, "運動は？毎朝散歩している。持病は？", ex.got)

	_, err = svc.ExtractQAPairs(f.ctx, f.care2, sess.UID)
	requireStatus(t, http.StatusForbidden, err)

	// extraction suggests only; nothing is stored
	full, err := svc.GetSession(f.ctx, f.care1, sess.UID)
	require.NoError(t, err)
	assert.Empty(t, full.QuestionAnswers)

	tr, err = svc.UpdateTranscription(f.ctx, f.care1, sess.UID, "")
	require.NoError(t, err)
	assert.Nil(t, tr.Transcription)
}
