package app

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hakwon-labs/studycoach-backend/internal/logger"
	"github.com/hakwon-labs/studycoach-backend/internal/services"
	"github.com/hakwon-labs/studycoach-backend/internal/utils"
)

type Config struct {
	Port        string
	Environment string

	MemoryLane services.MemoryLaneConfig
	Burnout    services.BurnoutThresholds
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		MemoryLane:  services.DefaultMemoryLaneConfig(),
		Burnout:     services.DefaultBurnoutThresholds(),
	}

	cfg.MemoryLane.TopK = utils.GetEnvAsInt("MEMORY_TOP_K", cfg.MemoryLane.TopK, log)
	cfg.MemoryLane.CharBudget = utils.GetEnvAsInt("MEMORY_CHAR_BUDGET", cfg.MemoryLane.CharBudget, log)
	cfg.MemoryLane.Weights = loadRankWeights(log, cfg.MemoryLane.Weights)

	cfg.Burnout.HighMissedDays = utils.GetEnvAsInt("BURNOUT_HIGH_MISSED_DAYS", cfg.Burnout.HighMissedDays, log)
	cfg.Burnout.MediumMissedDays = utils.GetEnvAsInt("BURNOUT_MEDIUM_MISSED_DAYS", cfg.Burnout.MediumMissedDays, log)
	cfg.Burnout.LowCompletionRate = utils.GetEnvAsFloat("BURNOUT_LOW_COMPLETION_RATE", cfg.Burnout.LowCompletionRate, log)
	cfg.Burnout.WeakCompletionRate = utils.GetEnvAsFloat("BURNOUT_WEAK_COMPLETION_RATE", cfg.Burnout.WeakCompletionRate, log)
	cfg.Burnout.HighNegativeCount = utils.GetEnvAsInt("BURNOUT_HIGH_NEGATIVE_COUNT", cfg.Burnout.HighNegativeCount, log)
	cfg.Burnout.MediumNegativeCount = utils.GetEnvAsInt("BURNOUT_MEDIUM_NEGATIVE_COUNT", cfg.Burnout.MediumNegativeCount, log)

	return cfg
}

// loadRankWeights reads an optional YAML override for the six re-ranking
// weights. The defaults are a tuned starting point, not a fixed contract.
func loadRankWeights(log *logger.Logger, defaults services.RankWeights) services.RankWeights {
	path := utils.GetEnv("RANK_WEIGHTS_PATH", "", log)
	if path == "" {
		return defaults
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Rank weights file unreadable, using defaults", "path", path, "error", err)
		return defaults
	}
	weights := defaults
	if err := yaml.Unmarshal(raw, &weights); err != nil {
		log.Warn("Rank weights file malformed, using defaults", "path", path, "error", err)
		return defaults
	}
	return weights
}
