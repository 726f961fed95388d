package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags holds process-wide feature switches. Every flag guards
// wiring chosen at startup, so there is no per-profile evaluation.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// === Settlement ===
	FeatureSettlementStrictInvariant = "settlement.strict_invariant" // Refuse to persist a profile whose points drift from the ledger
	FeatureSettlementRedisLock       = "settlement.redis_lock"       // Serialize profile writes across instances

	// === Leaderboard ===
	FeatureLeaderboardCache = "leaderboard.cache" // Serve rankings from the snapshot cache

	// === Events ===
	FeatureEventsFanout = "events.fanout" // Broadcast domain events to other instances over Redis
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	for _, f := range []Feature{
		{FeatureSettlementStrictInvariant, "Verify points against the ledger before every save", true},
		{FeatureSettlementRedisLock, "Take a Redis lease on the profile while mutating it", false},
		{FeatureLeaderboardCache, "Cache the ranked leaderboard between point changes", true},
		{FeatureEventsFanout, "Publish domain events on a Redis channel for other instances", false},
	} {
		f := f
		ff.features[f.Name] = &f
	}
}

// loadFromEnvironment applies FEATURE_<NAME>=true|false.
// Example: FEATURE_SETTLEMENT_REDIS_LOCK=true
// Unparseable values keep the default.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "settlement.redis_lock" -> "FEATURE_SETTLEMENT_REDIS_LOCK"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is switched on. Unknown names and a
// nil receiver report false.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	return ok && feature.Enabled
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}
