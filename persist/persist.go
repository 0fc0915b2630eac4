// Package persist saves fitted training records to a compact binary
// envelope and loads them back. The envelope is a fixed header (magic,
// format version, compression type) followed by a compressed JSON
// payload, so records stay inspectable with standard tools once
// decompressed.
//
// Only linear-family records serialize: they are fully described by their
// coefficient vector, intercept, and replayable transforms. Tree
// ensembles are not serializable and are rejected at save time.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tsfit/tsfit/compress"
	"github.com/tsfit/tsfit/endian"
	"github.com/tsfit/tsfit/format"
	"github.com/tsfit/tsfit/formula"
	"github.com/tsfit/tsfit/internal/options"
	"github.com/tsfit/tsfit/internal/pool"
	"github.com/tsfit/tsfit/regression"
	"github.com/tsfit/tsfit/uncertainty"
)

// magic identifies the envelope format.
var magic = [4]byte{'T', 'S', 'F', 'T'}

// formatVersion is bumped on incompatible payload changes.
const formatVersion byte = 1

var (
	// ErrNotSerializable is returned when the record's model has no
	// coefficient representation, such as tree ensembles.
	ErrNotSerializable = errors.New("model is not serializable")
	// ErrBadMagic is returned when the input does not start with the
	// envelope magic.
	ErrBadMagic = errors.New("not a training-record envelope")
	// ErrBadVersion is returned for envelope versions this build cannot
	// read.
	ErrBadVersion = errors.New("unsupported envelope version")
)

// saveConfig collects the optional save parameters.
type saveConfig struct {
	compression format.CompressionType
}

// SaveOption configures a Save call.
type SaveOption = options.Option[*saveConfig]

// WithCompression selects the payload compression codec. The default is
// Zstd.
func WithCompression(c format.CompressionType) SaveOption {
	return options.New(func(cfg *saveConfig) error {
		if _, err := compress.GetCodec(c); err != nil {
			return err
		}
		cfg.compression = c

		return nil
	})
}

// record is the JSON payload. NaN-able scalars are pointers, absent when
// undefined, since JSON has no NaN.
type record struct {
	Algorithm        string                    `json:"algorithm"`
	Info             *formula.DesignInfo       `json:"info"`
	ColNames         []string                  `json:"col_names"`
	Coefficients     []float64                 `json:"coefficients"`
	Intercept        float64                   `json:"intercept"`
	YMean            float64                   `json:"y_mean"`
	YStd             float64                   `json:"y_std"`
	ResponseCol      string                    `json:"response_col"`
	WeightCol        string                    `json:"weight_col,omitempty"`
	Normalization    *regression.Normalization `json:"normalization,omitempty"`
	RemovedIntercept string                    `json:"removed_intercept,omitempty"`
	RidgePenalty     float64                   `json:"ridge_penalty,omitempty"`
	PEffective       *float64                  `json:"p_effective,omitempty"`
	SigmaScaler      *float64                  `json:"sigma_scaler,omitempty"`
	XMean            []float64                 `json:"x_mean,omitempty"`
	Bounds           *regression.Bounds        `json:"bounds,omitempty"`
	Uncertainty      *uncertainty.Snapshot     `json:"uncertainty,omitempty"`
	Warnings         []string                  `json:"warnings,omitempty"`
}

// Save writes the record to w. Records fitted by tree ensembles return
// ErrNotSerializable.
func Save(w io.Writer, rec *regression.TrainingRecord, opts ...SaveOption) error {
	cfg := &saveConfig{compression: format.CompressionZstd}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	coef := rec.Model.Coefficients()
	if len(coef) == 0 {
		return fmt.Errorf("%w: %s", ErrNotSerializable, rec.Algorithm)
	}

	payload := &record{
		Algorithm:        rec.Algorithm.String(),
		Info:             rec.Info,
		ColNames:         rec.ColNames,
		Coefficients:     coef,
		Intercept:        rec.Model.Intercept(),
		YMean:            rec.YMean,
		YStd:             rec.YStd,
		ResponseCol:      rec.ResponseCol,
		WeightCol:        rec.WeightCol,
		Normalization:    rec.Normalization,
		RemovedIntercept: rec.RemovedIntercept,
		RidgePenalty:     rec.RidgePenalty,
		PEffective:       finitePtr(rec.PEffective),
		SigmaScaler:      finitePtr(rec.SigmaScaler),
		XMean:            rec.XMean,
		Bounds:           rec.Bounds,
		Warnings:         rec.Warnings,
	}
	if rec.Uncertainty != nil {
		payload.Uncertainty = rec.Uncertainty.Snapshot()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return err
	}
	compressed, err := codec.Compress(raw)
	if err != nil {
		return err
	}

	// Assemble the envelope in a pooled buffer so w sees a single write.
	engine := endian.GetLittleEndianEngine()
	buf := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(buf)
	buf.B = append(buf.B, magic[:]...)
	buf.B = append(buf.B, formatVersion, byte(cfg.compression))
	buf.B = engine.AppendUint32(buf.B, uint32(len(compressed)))
	buf.B = append(buf.B, compressed...)
	_, err = buf.WriteTo(w)

	return err
}

// Load reads a record envelope from r and rebuilds the training record.
// The loaded record predicts and decomposes like the original; the
// training design matrix and hat matrix are not retained.
func Load(r io.Reader) (*regression.TrainingRecord, error) {
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if [4]byte(header[:4]) != magic {
		return nil, ErrBadMagic
	}
	if header[4] != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, header[4])
	}
	codec, err := compress.GetCodec(format.CompressionType(header[5]))
	if err != nil {
		return nil, err
	}
	size := endian.GetLittleEndianEngine().Uint32(header[6:])

	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}
	raw, err := codec.Decompress(compressed)
	if err != nil {
		return nil, err
	}

	var payload record
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	algo, err := regression.ParseAlgorithm(payload.Algorithm)
	if err != nil {
		return nil, err
	}
	rec := &regression.TrainingRecord{
		Algorithm:        algo,
		Model:            regression.NewCoefficientModel(payload.Coefficients, payload.Intercept),
		Info:             payload.Info,
		ColNames:         payload.ColNames,
		YMean:            payload.YMean,
		YStd:             payload.YStd,
		ResponseCol:      payload.ResponseCol,
		WeightCol:        payload.WeightCol,
		Normalization:    payload.Normalization,
		RemovedIntercept: payload.RemovedIntercept,
		RidgePenalty:     payload.RidgePenalty,
		PEffective:       finiteVal(payload.PEffective),
		SigmaScaler:      finiteVal(payload.SigmaScaler),
		XMean:            payload.XMean,
		Bounds:           payload.Bounds,
		Warnings:         payload.Warnings,
	}
	if payload.Uncertainty != nil {
		um, uerr := uncertainty.FromSnapshot(payload.Uncertainty)
		if uerr != nil {
			return nil, uerr
		}
		rec.Uncertainty = um
	}

	return rec, nil
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func finiteVal(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}

	return *p
}
