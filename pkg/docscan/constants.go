package docscan

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultTuiEnabled is the default state for the Terminal UI on recursive scans.
	DefaultTuiEnabled = true
	// DefaultColorEnabled is the default state for colourised text reports.
	DefaultColorEnabled = true
	// DefaultOutputFormat is the default format for the rendered report.
	DefaultOutputFormat = OutputFormatText
	// DefaultSkipVendored is the default for skipping vendored paths during enumeration.
	DefaultSkipVendored = false
	// DefaultChangedOnly is the default for restricting workspace scans to changed files.
	DefaultChangedOnly = false
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
)

// IgnoreFileName is the per-tree ignore file looked up from every scan root upward.
const IgnoreFileName = ".docscanignore"

// ReportSchemaVersion indicates the version of the JSON/YAML report structure.
const ReportSchemaVersion = "1.0"

// Constants defining skip reasons used in the Report.
const (
	SkipReasonUnsupported = "unsupported_extension"
	SkipReasonBinary      = "binary_file"
)
