package main

import (
	"context"
	"database/sql"

	"github.com/go-redis/redis/v8"
	"github.com/yuta0709/nagara-care-api/internal/archive"
	"github.com/yuta0709/nagara-care-api/internal/common/mqtt"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/indexer"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/notify"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"github.com/yuta0709/nagara-care-api/internal/service"
	"github.com/yuta0709/nagara-care-api/internal/speech"
	"github.com/yuta0709/nagara-care-api/internal/vectorstore"
	"go.uber.org/zap"
)

type repos struct {
	tenants     repository.TenantsRepository
	users       repository.UsersRepository
	residents   repository.ResidentsRepository
	subjects    repository.SubjectsRepository
	assessments repository.AssessmentsRepository
	chat        repository.ChatRepository
	qa          repository.QARepository
	food        repository.RecordRepository[*domain.FoodRecord]
	bath        repository.RecordRepository[*domain.BathRecord]
	elimination repository.RecordRepository[*domain.EliminationRecord]
	beverage    repository.RecordRepository[*domain.BeverageRecord]
	daily       repository.RecordRepository[*domain.DailyRecord]
}

func newRepos(db *sql.DB) *repos {
	if db == nil {
		m := repository.NewMemoryRepos()
		return &repos{
			tenants:     m.Tenants,
			users:       m.Users,
			residents:   m.Residents,
			subjects:    m.Subjects,
			assessments: m.Assessments,
			chat:        m.Chat,
			qa:          m.QA,
			food:        m.Food,
			bath:        m.Bath,
			elimination: m.Elimination,
			beverage:    m.Beverage,
			daily:       m.Daily,
		}
	}
	return &repos{
		tenants:     repository.NewPostgresTenantsRepository(db),
		users:       repository.NewPostgresUsersRepository(db),
		residents:   repository.NewPostgresResidentsRepository(db),
		subjects:    repository.NewPostgresSubjectsRepository(db),
		assessments: repository.NewPostgresAssessmentsRepository(db),
		chat:        repository.NewPostgresChatRepository(db),
		qa:          repository.NewPostgresQARepository(db),
		food:        repository.NewPostgresFoodRecordRepo(db),
		bath:        repository.NewPostgresBathRecordRepo(db),
		elimination: repository.NewPostgresEliminationRecordRepo(db),
		beverage:    repository.NewPostgresBeverageRecordRepo(db),
		daily:       repository.NewPostgresDailyRecordRepo(db),
	}
}

// external holds the optional collaborators. Interface fields stay nil (never a
// typed nil) when their provider is not configured, and services answer 502.
type external struct {
	foodExtractor        policy.Extractor[*domain.FoodRecord, llm.FoodExtraction]
	bathExtractor        policy.Extractor[*domain.BathRecord, llm.BathExtraction]
	eliminationExtractor policy.Extractor[*domain.EliminationRecord, llm.EliminationExtraction]
	beverageExtractor    policy.Extractor[*domain.BeverageRecord, llm.BeverageExtraction]
	dailyExtractor       policy.Extractor[*domain.DailyRecord, llm.DailyExtraction]
	assessmentExtractor  policy.Extractor[*domain.Assessment, llm.AssessmentExtraction]
	summarizer           service.Summarizer
	pairExtractor        service.PairExtractor
	chatModel            service.ChatModel

	vectors  *vectorstore.Store
	searcher vectorstore.Searcher

	transcriber speech.Transcriber
	diarizer    speech.Diarizer
	archive     archive.Archiver

	mqtt     *mqtt.Client
	notifier notify.Notifier
}

func newExternal(ctx context.Context, cfg *config.Config, log *zap.Logger) *external {
	ext := &external{}

	if cfg.OpenAI.APIKey != "" {
		ai := llm.NewClient(cfg.OpenAI, log)
		ext.foodExtractor = llm.NewFoodExtractor(ai)
		ext.bathExtractor = llm.NewBathExtractor(ai)
		ext.eliminationExtractor = llm.NewEliminationExtractor(ai)
		ext.beverageExtractor = llm.NewBeverageExtractor(ai)
		ext.dailyExtractor = llm.NewDailyExtractor(ai)
		ext.assessmentExtractor = llm.NewAssessmentExtractor(ai)
		ext.summarizer = llm.NewSummarizer(ai)
		ext.pairExtractor = llm.NewQAExtractor(ai)
		ext.chatModel = ai
		ext.transcriber = speech.NewOpenAITranscriber(cfg.OpenAI, log)

		if cfg.Pinecone.APIKey != "" && cfg.Pinecone.IndexHost != "" {
			ext.vectors = vectorstore.NewStore(ai, vectorstore.NewPineconeClient(cfg.Pinecone, log))
			ext.searcher = ext.vectors
		} else {
			log.Warn("Pinecone not configured, chat and record indexing disabled")
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, extraction, chat and transcription disabled")
	}

	if cfg.ElevenLabs.APIKey != "" {
		ext.diarizer = speech.NewElevenLabsDiarizer(cfg.ElevenLabs, log)
	}

	if cfg.Archive.Bucket != "" {
		a, err := archive.NewS3Archive(ctx, cfg.Archive, log)
		if err != nil {
			log.Warn("Audio archive disabled", zap.String("bucket", cfg.Archive.Bucket), zap.Error(err))
		} else {
			ext.archive = a
		}
	}

	if cfg.MQTT.Enabled {
		c, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err != nil {
			log.Warn("MQTT notifications disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			ext.mqtt = c
			ext.notifier = notify.NewMQTTNotifier(c, cfg.MQTT.TopicPrefix, log)
		}
	}
	return ext
}

func (e *external) close() {
	if e.mqtt != nil {
		e.mqtt.Disconnect()
	}
}

// wireIndexer sets hooks.Index. With Redis the events go through the stream and the
// returned consumer indexes them; without Redis they are indexed inline.
func wireIndexer(cfg *config.Config, r *repos, ext *external, rc *redis.Client, hooks *service.RecordHooks, log *zap.Logger) *indexer.Consumer {
	if ext.vectors == nil || !cfg.Indexer.Enabled {
		return nil
	}
	ix := indexer.NewIndexer(r.daily, r.food, r.residents, ext.vectors, log)
	if rc == nil {
		hooks.Index = indexer.NewInlinePublisher(ix, log)
		return nil
	}
	hooks.Index = indexer.NewStreamPublisher(rc, cfg.Indexer.Stream, log)
	return indexer.NewConsumer(rc, cfg.Indexer, ix, log)
}
