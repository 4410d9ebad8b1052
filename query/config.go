package query

// ScopeFinalityConfig governs how strict a scope's reads and writes must be
// (§4.3). It attaches to a ScopeId; Cascade controls whether descendant
// scopes inherit it absent their own override.
type ScopeFinalityConfig struct {
	Scope ScopeId

	DefaultFinality FinalityLevel
	MinimumFinality FinalityLevel // operations may not request less than this
	Cascade         bool

	// ContentTypeOverrides lets specific content types demand a stricter or
	// looser default than the scope's general DefaultFinality, still
	// bounded below by MinimumFinality.
	ContentTypeOverrides map[string]FinalityLevel
}

// EffectiveFinality picks the content-type override if one exists, else the
// scope's default, and never returns a level below MinimumFinality.
func (c ScopeFinalityConfig) EffectiveFinality(contentType string) FinalityLevel {
	level := c.DefaultFinality
	if override, ok := c.ContentTypeOverrides[contentType]; ok {
		level = override
	}
	if level < c.MinimumFinality {
		return c.MinimumFinality
	}
	return level
}

// ConfigRegistry resolves the nearest ScopeFinalityConfig for a scope,
// walking up through ancestors whose config cascades.
type ConfigRegistry struct {
	byScope map[string]ScopeFinalityConfig
}

func NewConfigRegistry() *ConfigRegistry {
	return &ConfigRegistry{byScope: map[string]ScopeFinalityConfig{}}
}

func (r *ConfigRegistry) Set(cfg ScopeFinalityConfig) {
	r.byScope[cfg.Scope.String()] = cfg
}

// Resolve finds the governing config for scope: its own if set, else the
// nearest cascading ancestor's, else a permissive default
// (DefaultFinality = Local, no minimum).
func (r *ConfigRegistry) Resolve(scope ScopeId) ScopeFinalityConfig {
	if cfg, ok := r.byScope[scope.String()]; ok {
		return cfg
	}
	cur := scope
	for {
		parent, ok := cur.Parent()
		if !ok {
			break
		}
		if cfg, ok := r.byScope[parent.String()]; ok && cfg.Cascade {
			return cfg
		}
		cur = parent
	}
	return ScopeFinalityConfig{Scope: scope, DefaultFinality: FinalityLocal}
}
