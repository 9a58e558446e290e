// Package pricing is the reference cost-computation collaborator the append
// engine calls when a payload carries token usage but no pre-computed cost
// (§4.3 step 3e). Rates are loaded from a TOML table keyed by model name;
// callers with their own billing source can supply any other Pricer.
package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/sessiontree/sessiontree/internal/types"
)

//go:embed rates.toml
var defaultRatesTOML []byte

// Rate is the per-million-token cost for one model, in USD.
type Rate struct {
	InputPerMTok       float64 `toml:"input_per_mtok"`
	OutputPerMTok      float64 `toml:"output_per_mtok"`
	CacheReadPerMTok   float64 `toml:"cache_read_per_mtok"`
	CacheCreatePerMTok float64 `toml:"cache_create_per_mtok"`
}

type rateTable struct {
	Model map[string]Rate `toml:"model"`
}

// Pricer computes the USD cost of one turn's token usage for a given model.
type Pricer interface {
	Cost(model string, usage types.TokenUsage) (float64, error)
}

// Table is a Pricer backed by a TOML rate table. Safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	rates map[string]Rate
}

// NewDefault loads the rate table embedded in the binary, covering the
// model names this product ships with.
func NewDefault() (*Table, error) {
	return newFromBytes(defaultRatesTOML)
}

// Load reads a rate table from a TOML file on disk, for operators who want
// rates other than the embedded defaults. The returned table holds only the
// file's rows; the embedded defaults are not merged in.
func Load(path string) (*Table, error) {
	var rt rateTable
	if _, err := toml.DecodeFile(path, &rt); err != nil {
		return nil, fmt.Errorf("loading pricing table %s: %w", path, err)
	}
	return &Table{rates: rt.Model}, nil
}

func newFromBytes(b []byte) (*Table, error) {
	var rt rateTable
	if _, err := toml.NewDecoder(bytes.NewReader(b)).Decode(&rt); err != nil {
		return nil, fmt.Errorf("decoding embedded pricing table: %w", err)
	}
	return &Table{rates: rt.Model}, nil
}

// Cost computes USD cost from token usage. Unknown models return zero cost
// rather than an error, so an append never fails for a missing rate row.
func (t *Table) Cost(model string, usage types.TokenUsage) (float64, error) {
	t.mu.RLock()
	rate, ok := t.rates[model]
	t.mu.RUnlock()
	if !ok {
		return 0, nil
	}
	const perMillion = 1_000_000.0
	cost := float64(usage.InputTokens)*rate.InputPerMTok/perMillion +
		float64(usage.OutputTokens)*rate.OutputPerMTok/perMillion +
		float64(usage.CacheReadTokens)*rate.CacheReadPerMTok/perMillion +
		float64(usage.CacheCreateTokens)*rate.CacheCreatePerMTok/perMillion
	return cost, nil
}

// SetRate installs or overrides a model's rate at runtime.
func (t *Table) SetRate(model string, r Rate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rates == nil {
		t.rates = make(map[string]Rate)
	}
	t.rates[model] = r
}
