package docscan

// Status defines the possible processing states of a file during a scan session.
type Status string

// Constants representing the defined file processing statuses.
const (
	StatusPending  Status = "pending"
	StatusScanning Status = "scanning"
	StatusScanned  Status = "scanned"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Mode identifies which kind of scan a session performs.
type Mode string

// Constants representing the four scan entry points.
const (
	ModeFile      Mode = "file"
	ModeFolder    Mode = "folder"
	ModeTree      Mode = "tree"
	ModeWorkspace Mode = "workspace"
)

// OutputFormat defines the format of the rendered report.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Progress describes how far a recursive scan has come. Increment is the
// percentage contributed by the file just scanned; Percent is the running total.
type Progress struct {
	Done      int     `json:"done"`
	Total     int     `json:"total"`
	Increment float64 `json:"increment"`
	Percent   float64 `json:"percent"`
	Path      string  `json:"path"`
}
