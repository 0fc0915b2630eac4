package uncertainty

import "github.com/tsfit/tsfit/internal/collision"

// Snapshot is the serializable form of a fitted model. JSON-encoding the
// group map keys as decimal strings is handled by encoding/json.
type Snapshot struct {
	Spec   *SnapshotSpec         `json:"spec"`
	Groups map[uint64]GroupStats `json:"groups"`
	Canon  map[uint64]string     `json:"canon"`
	Pooled GroupStats            `json:"pooled"`
}

// SnapshotSpec mirrors Spec with the method stored by name, keeping the
// serialized form readable and stable across enum reordering.
type SnapshotSpec struct {
	Method              string    `json:"method"`
	ConditionalCols     []string  `json:"conditional_cols,omitempty"`
	Quantiles           []float64 `json:"quantiles"`
	SampleSizeThresh    int       `json:"sample_size_thresh"`
	SmallSampleQuantile float64   `json:"small_sample_quantile"`
}

// Snapshot captures the fitted state for persistence. It returns nil for
// an unfitted model.
func (c *ConditionalResiduals) Snapshot() *Snapshot {
	if !c.fitted {
		return nil
	}

	return &Snapshot{
		Spec: &SnapshotSpec{
			Method:              c.spec.Method.String(),
			ConditionalCols:     c.spec.ConditionalCols,
			Quantiles:           c.spec.Quantiles,
			SampleSizeThresh:    c.spec.SampleSizeThresh,
			SmallSampleQuantile: c.spec.SmallSampleQuantile,
		},
		Groups: c.groups,
		Canon:  c.tracker.Snapshot(),
		Pooled: c.pooled,
	}
}

// FromSnapshot rebuilds a fitted model from its serialized state.
func FromSnapshot(s *Snapshot) (*ConditionalResiduals, error) {
	if s == nil {
		return nil, ErrNotFitted
	}
	method, err := ParseMethod(s.Spec.Method)
	if err != nil {
		return nil, err
	}
	spec, err := (&Spec{
		Method:              method,
		ConditionalCols:     s.Spec.ConditionalCols,
		Quantiles:           s.Spec.Quantiles,
		SampleSizeThresh:    s.Spec.SampleSizeThresh,
		SmallSampleQuantile: s.Spec.SmallSampleQuantile,
	}).Validate()
	if err != nil {
		return nil, err
	}

	return &ConditionalResiduals{
		spec:    spec,
		groups:  s.Groups,
		tracker: collision.FromSnapshot(s.Canon),
		pooled:  s.Pooled,
		fitted:  true,
	}, nil
}
