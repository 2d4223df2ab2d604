package docscan

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ReportSchema is the JSON Schema of a report rendered with OutputFormatJSON.
//
//go:embed report.schema.json
var ReportSchema []byte

// ErrReportInvalid indicates a JSON report that does not match ReportSchema.
var ErrReportInvalid = errors.New("report does not match schema")

// ValidateReportJSON checks data against ReportSchema. Schema violations are
// wrapped in ErrReportInvalid and listed one per line.
func ValidateReportJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(ReportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validating report: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w:\n%s", ErrReportInvalid, strings.Join(msgs, "\n"))
}
