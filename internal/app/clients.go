package app

import (
	"github.com/hakwon-labs/studycoach-backend/internal/clients/redis"
	"github.com/hakwon-labs/studycoach-backend/internal/llm"
	"github.com/hakwon-labs/studycoach-backend/internal/logger"
)

type Clients struct {
	LLM          llm.Client
	PatternCache redis.PatternCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")
	llmClient, err := llm.NewClient(log)
	if err != nil {
		return Clients{}, err
	}
	patternCache, err := redis.NewPatternCache(log)
	if err != nil {
		return Clients{}, err
	}
	return Clients{
		LLM:          llmClient,
		PatternCache: patternCache,
	}, nil
}
