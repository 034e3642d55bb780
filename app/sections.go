package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/intent"
	llmx "github.com/tanpawarit/chative-food-order/agent/llm"
	statex "github.com/tanpawarit/chative-food-order/agent/state"
	configx "github.com/tanpawarit/chative-food-order/pkg/config"
	mongox "github.com/tanpawarit/chative-food-order/pkg/mongo"
	postgresx "github.com/tanpawarit/chative-food-order/pkg/postgres"
	redisx "github.com/tanpawarit/chative-food-order/pkg/redis"
)

// Sections holds the backend config sections. Only the ones selected by Config are loaded.
type Sections struct {
	Mongo    mongox.Config
	Postgres postgresx.Config
	Redis    redisx.Config
	Upstash  statex.UpstashRedisConfig
	LLM      llmx.Config
}

func LoadSections(cfg Config) (Sections, error) {
	var sec Sections

	if cfg.CatalogBackend == BackendMongo {
		c, err := configx.New[mongox.Config]("MONGO")
		if err != nil {
			return sec, err
		}
		sec.Mongo = *c
	}
	if cfg.usesPostgres() {
		c, err := configx.New[postgresx.Config]("DATABASE")
		if err != nil {
			return sec, err
		}
		sec.Postgres = *c
	}
	switch cfg.SessionBackend {
	case BackendRedis:
		c, err := configx.New[redisx.Config]("REDIS")
		if err != nil {
			return sec, err
		}
		sec.Redis = *c
	case BackendUpstash:
		c, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return sec, err
		}
		sec.Upstash = *c
	}
	if cfg.Extractor != intent.BackendRules {
		c, err := configx.New[llmx.Config]("LLM")
		switch {
		case err == nil:
			sec.LLM = *c
		case cfg.Extractor == "" && errors.Is(err, contractx.ErrValidation):
			// Auto mode without credentials falls back to the rule extractor.
			log.Info().Err(err).Msg("llm not configured, using rule based intent extraction")
		default:
			return sec, err
		}
	}

	return sec, nil
}
