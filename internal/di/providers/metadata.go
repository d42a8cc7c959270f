package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/logger"
	"github.com/shelfmark/shelfmark-server/internal/metadata"
	"github.com/shelfmark/shelfmark-server/internal/ratelimit"
)

// ProvideLookup provides the catalog lookup used during book resolution.
// No catalog client is bundled; a provider implementation slots in behind
// the rate-limited decorator without touching callers.
func ProvideLookup(i do.Injector) (metadata.Lookup, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Lookup.Enabled {
		log.Info("Metadata lookup disabled, imports persist manual-entry data")
		return metadata.Disabled{}, nil
	}

	limiter := ratelimit.New(cfg.Lookup.RPS, cfg.Lookup.Burst)
	log.Info("Metadata lookup rate limiter configured",
		"rps", cfg.Lookup.RPS,
		"burst", cfg.Lookup.Burst,
	)

	return metadata.NewRateLimited(metadata.Disabled{}, limiter, "catalog"), nil
}
