package sources

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobhunter/internal/common"
	"github.com/ternarybob/jobhunter/internal/interfaces"
	"github.com/ternarybob/jobhunter/internal/models"
)

// Registry holds the enabled Source Adapters, built once from configuration
// (spec §4.2). The scrape orchestrator fans out over Registry.Enabled()
// rather than knowing about individual adapter types.
type Registry struct {
	adapters map[models.SourceTag]interfaces.SourceAdapter
	order    []models.SourceTag
}

// NewRegistry constructs the adapter set from sources configuration. Only
// adapters with Enabled: true are registered; External additionally needs a
// non-nil llmService, and is left out of Enabled() since user submissions
// go through it on demand, not on a schedule.
func NewRegistry(cfg *common.SourcesConfig, llmService interfaces.LLMService, logger arbor.ILogger) *Registry {
	r := &Registry{adapters: make(map[models.SourceTag]interfaces.SourceAdapter)}

	if cfg.Remotive.Enabled {
		r.register(NewRemotiveAdapter(cfg.Remotive.BaseURL, cfg.TimeoutSeconds, logger))
	}
	if cfg.RemoteOK.Enabled {
		r.register(NewRemoteOKAdapter(cfg.RemoteOK.BaseURL, cfg.TimeoutSeconds, logger))
	}
	if cfg.Adzuna.Enabled {
		r.register(NewAdzunaAdapter(cfg.Adzuna.BaseURL, cfg.Adzuna.AppID, cfg.Adzuna.AppKey, cfg.Adzuna.Country, cfg.TimeoutSeconds, logger))
	}
	if cfg.External.Enabled && llmService != nil {
		r.register(NewExternalAdapter(llmService, logger))
	}

	return r
}

func (r *Registry) register(a interfaces.SourceAdapter) {
	r.adapters[a.Name()] = a
	r.order = append(r.order, a.Name())
}

// Enabled returns the registered periodic-fetch adapters in registration
// order, so a scrape run's source ordering is deterministic across runs.
// External is never included here: it has no periodic fetch (spec §4.2).
func (r *Registry) Enabled() []interfaces.SourceAdapter {
	out := make([]interfaces.SourceAdapter, 0, len(r.order))
	for _, name := range r.order {
		if name == models.SourceExternal {
			continue
		}
		out = append(out, r.adapters[name])
	}
	return out
}

// Filter narrows the registered adapters to the requested names, preserving
// registration order and silently skipping names that are not registered.
func (r *Registry) Filter(names []models.SourceTag) []interfaces.SourceAdapter {
	wanted := make(map[models.SourceTag]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	out := make([]interfaces.SourceAdapter, 0, len(names))
	for _, name := range r.order {
		if wanted[name] {
			out = append(out, r.adapters[name])
		}
	}
	return out
}

// Get returns the adapter registered for a source tag, or nil if disabled.
func (r *Registry) Get(name models.SourceTag) interfaces.SourceAdapter {
	return r.adapters[name]
}
