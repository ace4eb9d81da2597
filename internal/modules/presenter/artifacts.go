package presenter

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

// Download file names.
const (
	ExportFilename = "portfolio.json"
	PlotFilename   = "EfficientFrontier.png"
)

// Artifact is a downloadable file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ToExportDocument renders the result as indented JSON without the plot
// image. It is built from the raw response when available, so fields this
// client does not model are kept.
func ToExportDocument(result *domain.OptimizationResult) (Artifact, error) {
	if result == nil {
		return Artifact{}, apperrors.ErrNoResult
	}

	var doc any
	if len(result.Raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(result.Raw))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err == nil && fields != nil {
			delete(fields, domain.PlotImageField)
			doc = fields
		}
	}
	if doc == nil {
		stripped := *result
		stripped.PlotImage = ""
		doc = stripped
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return Artifact{}, fmt.Errorf("failed to encode portfolio: %w", err)
	}

	return Artifact{
		Filename:    ExportFilename,
		ContentType: "application/json",
		Data:        bytes.TrimRight(buf.Bytes(), "\n"),
	}, nil
}

// ToPlotArtifact decodes the embedded efficient-frontier image.
func ToPlotArtifact(result *domain.OptimizationResult) (Artifact, error) {
	if result == nil {
		return Artifact{}, apperrors.ErrNoResult
	}
	if result.PlotImage == "" {
		return Artifact{}, apperrors.ErrNoPlot
	}

	encoded := strings.Join(strings.Fields(result.PlotImage), "")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: failed to decode image: %v", apperrors.ErrNoPlot, err)
	}

	return Artifact{
		Filename:    PlotFilename,
		ContentType: "image/png",
		Data:        data,
	}, nil
}
