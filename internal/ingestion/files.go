package ingestion

import (
	"fmt"
	"os"

	"crm-fact-pipeline/internal/domain"
)

// Extracts holds the parsed content of the four input files.
type Extracts struct {
	Opportunities []*domain.OpportunityRecord
	Accounts      []domain.Account
	FxRates       []domain.FxRate
	StageMappings []domain.StageMapping

	// Skipped lists structurally defective rows per extract,
	// keyed by the names in ExtractNames.
	Skipped map[string][]RowError
}

// ExtractNames keys Extracts.Skipped in input order, so skip reporting
// is reproducible across runs.
var ExtractNames = []string{"opportunities", "accounts", "fx_rates", "stage_mapping"}

// OpportunitiesSkipped is the structural-skip count that feeds the run
// summary; reference-table skips are reported but not summarized.
func (e *Extracts) OpportunitiesSkipped() int {
	return len(e.Skipped["opportunities"])
}

// LoadExtracts reads the four extracts from disk.
func LoadExtracts(opportunitiesPath, accountsPath, fxPath, stageMapPath string) (*Extracts, error) {
	ex := &Extracts{Skipped: make(map[string][]RowError)}

	err := withFile(opportunitiesPath, func(f *os.File) error {
		records, skipped, err := ReadOpportunities(f)
		ex.Opportunities, ex.Skipped["opportunities"] = records, skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	err = withFile(accountsPath, func(f *os.File) error {
		accounts, skipped, err := ReadAccounts(f)
		ex.Accounts, ex.Skipped["accounts"] = accounts, skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	err = withFile(fxPath, func(f *os.File) error {
		rates, skipped, err := ReadFxRates(f)
		ex.FxRates, ex.Skipped["fx_rates"] = rates, skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	err = withFile(stageMapPath, func(f *os.File) error {
		mappings, skipped, err := ReadStageMappings(f)
		ex.StageMappings, ex.Skipped["stage_mapping"] = mappings, skipped
		return err
	})
	if err != nil {
		return nil, err
	}

	return ex, nil
}

func withFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
