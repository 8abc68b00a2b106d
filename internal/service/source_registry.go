package service

import "anoa.com/lumirarewards/internal/model"

// SourceConfig describes one point source as data: no per-source code paths,
// the ledger consults the registry by id.
type SourceConfig struct {
	ID            string
	Enabled       bool
	DailyCap      int  // 0 = uncapped; applies to post-multiplier credits per calendar day
	DecayEligible bool // credited rows get an expires_at stamp
}

type SourceRegistry struct {
	sources map[string]SourceConfig
}

func NewSourceRegistry(configs ...SourceConfig) *SourceRegistry {
	r := &SourceRegistry{sources: make(map[string]SourceConfig)}
	for _, cfg := range configs {
		r.sources[cfg.ID] = cfg
	}
	return r
}

// DefaultSourceRegistry covers the built-in sources with store defaults.
// Deployments override caps via configuration at wiring time.
func DefaultSourceRegistry() *SourceRegistry {
	return NewSourceRegistry(
		SourceConfig{ID: model.SourceOrder, Enabled: true, DecayEligible: true},
		SourceConfig{ID: model.SourceReview, Enabled: true, DailyCap: 50, DecayEligible: true},
		SourceConfig{ID: model.SourceLoginStreak, Enabled: true, DailyCap: 25, DecayEligible: true},
		SourceConfig{ID: model.SourceReferral, Enabled: true, DecayEligible: true},
		SourceConfig{ID: model.SourceManualAdjustment, Enabled: true},
		SourceConfig{ID: model.SourceExpiry, Enabled: true},
	)
}

func (r *SourceRegistry) Register(cfg SourceConfig) {
	r.sources[cfg.ID] = cfg
}

func (r *SourceRegistry) Get(id string) (SourceConfig, bool) {
	cfg, ok := r.sources[id]
	return cfg, ok
}
