package refdata

import "crm-fact-pipeline/internal/domain"

// StageIndex is a direct raw-stage to standard-stage mapping.
// Matching is case-sensitive and exact.
type StageIndex struct {
	mapping map[string]string
}

// NewStageIndex builds an index from mapping rows. Later rows win on
// duplicate raw stages. An empty table is valid: every lookup misses.
func NewStageIndex(mappings []domain.StageMapping) *StageIndex {
	m := make(map[string]string, len(mappings))
	for _, sm := range mappings {
		if sm.RawStage == "" {
			continue
		}
		m[sm.RawStage] = sm.StandardStage
	}
	return &StageIndex{mapping: m}
}

// Lookup returns the standard stage for a raw label. The second return
// is false on a miss; the caller passes the raw label through and
// surfaces the miss to the quality checker.
func (idx *StageIndex) Lookup(rawStage string) (string, bool) {
	std, ok := idx.mapping[rawStage]
	return std, ok
}

// Len returns the number of mapped stages.
func (idx *StageIndex) Len() int {
	return len(idx.mapping)
}
