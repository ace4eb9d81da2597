package session

import (
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

// StateView is the JSON form of a RequestState.
type StateView struct {
	Phase          domain.RequestPhase `json:"phase"`
	Seq            uint64              `json:"seq"`
	ElapsedSeconds int                 `json:"elapsedSeconds,omitempty"`
	Message        string              `json:"message,omitempty"`
}

// View is a point-in-time copy of everything a frontend renders.
type View struct {
	SessionID  string                     `json:"sessionId"`
	Parameters domain.OptimizerParameters `json:"parameters"`
	Filters    domain.ETFFilters          `json:"filters"`
	Preview    *domain.PreviewCount       `json:"preview"` // nil until the first count arrives
	Catalog    *domain.CatalogParameters  `json:"catalog"` // nil until loaded
	State      StateView                  `json:"state"`

	Summary    *presenter.Summary    `json:"summary,omitempty"`
	Rows       []presenter.Row       `json:"rows,omitempty"`
	Aggregates *presenter.Aggregates `json:"aggregates,omitempty"`

	Request domain.RequestState `json:"-"`
}

// View returns a snapshot of the session. Result rows use the current
// assetRounding parameter.
func (s *Session) View() View {
	params, filters := s.store.Snapshot()
	state, seq := s.requests.Snapshot()

	v := View{
		SessionID:  s.id,
		Parameters: params,
		Filters:    filters,
		Catalog:    s.catalog.Snapshot(),
		State:      StateView{Phase: state.Phase(), Seq: seq},
		Request:    state,
	}
	if count, ok := s.preview.Count(); ok {
		v.Preview = &count
	}

	switch st := state.(type) {
	case domain.Pending:
		v.State.ElapsedSeconds = st.ElapsedSeconds
	case domain.Failed:
		v.State.Message = st.Message
	case domain.Succeeded:
		rounding := 0
		if params.AssetRounding != nil {
			rounding = *params.AssetRounding
		}
		summary := presenter.Summarize(st.Result)
		aggregates := presenter.ComputeAggregates(st.Result)
		v.Summary = &summary
		v.Rows = presenter.ToRows(st.Result, rounding)
		v.Aggregates = &aggregates
	}
	return v
}
