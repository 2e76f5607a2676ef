package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/yuta0709/nagara-care-api/internal/common/config"
)

// Config nagara-care-api（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr       string
		CORSOrigin string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig
	Log       struct {
		Level  string
		Format string
	}
	Auth struct {
		JWTSecret     string
		TokenTTL      time.Duration
		AdminPassword string
	}
	OpenAI     OpenAIConfig
	Pinecone   PineconeConfig
	ElevenLabs ElevenLabsConfig
	Archive    ArchiveConfig
	MQTT       MQTTConfig
	Indexer    IndexerConfig

	// CapabilityTableFile optional YAML overriding the default role capability table
	CapabilityTableFile string
}

// OpenAIConfig chat / extraction / embedding / transcription provider
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	ChatModel          string
	EmbeddingModel     string
	TranscriptionModel string
}

// PineconeConfig vector index used for RAG
type PineconeConfig struct {
	APIKey    string
	IndexHost string
	IndexName string
	Namespace string
}

// ElevenLabsConfig speaker diarization provider
type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
}

// ArchiveConfig S3 audio archive (disabled when Bucket is empty)
type ArchiveConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// MQTTConfig record change notifications（默认禁用）
type MQTTConfig struct {
	commoncfg.MQTTConfig
	Enabled     bool
	TopicPrefix string
}

// IndexerConfig daily record → vector index stream consumer
type IndexerConfig struct {
	Enabled  bool
	Stream   string
	Group    string
	Consumer string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3000"))
	cfg.HTTP.CORSOrigin = getEnv("CORS_ORIGIN", "")

	// DB 不可用时回退到内存 repo
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "nagara_care",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis = commoncfg.RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.TokenTTL = parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour)
	cfg.Auth.AdminPassword = getEnv("ADMIN_PASSWORD", "")

	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.OpenAI.ChatModel = getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	cfg.OpenAI.EmbeddingModel = getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large")
	cfg.OpenAI.TranscriptionModel = getEnv("OPENAI_TRANSCRIPTION_MODEL", "gpt-4o-mini-transcribe")

	cfg.Pinecone.APIKey = getEnv("PINECONE_API_KEY", "")
	cfg.Pinecone.IndexHost = getEnv("PINECONE_INDEX_HOST", "")
	cfg.Pinecone.IndexName = getEnv("PINECONE_INDEX_NAME", "")
	cfg.Pinecone.Namespace = getEnv("PINECONE_NAMESPACE", "")

	cfg.ElevenLabs.APIKey = getEnv("ELEVENLABS_API_KEY", "")
	cfg.ElevenLabs.BaseURL = getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")

	cfg.Archive.Bucket = getEnv("AUDIO_ARCHIVE_BUCKET", "")
	cfg.Archive.Region = getEnv("AUDIO_ARCHIVE_REGION", "ap-northeast-1")
	cfg.Archive.Endpoint = getEnv("AUDIO_ARCHIVE_ENDPOINT", "")
	cfg.Archive.PathStyle = parseBool(getEnv("AUDIO_ARCHIVE_PATH_STYLE", "false"))

	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", "false"))
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "nagara-care-api"
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "nagara-care/records")

	cfg.Indexer.Enabled = parseBool(getEnv("INDEXER_ENABLED", "true"))
	cfg.Indexer.Stream = getEnv("INDEXER_STREAM", "nagara-care:daily-records")
	cfg.Indexer.Group = getEnv("INDEXER_GROUP", "vector-indexer")
	cfg.Indexer.Consumer = getEnv("INDEXER_CONSUMER", hostnameOr("indexer-1"))

	cfg.CapabilityTableFile = getEnv("CAPABILITY_TABLE_FILE", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func hostnameOr(def string) string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return def
}
