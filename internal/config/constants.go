package config

// Application constants
const (
	// Application Info. The version lives in pkg/contracts.
	AppName = "qPCR Score"

	// EnvPrefix namespaces every environment variable (QPCR_SCORING_MODEL, ...)
	EnvPrefix = "QPCR"

	// QuantStudio export layout
	DefaultSheetName = "Amplification Data"
	DefaultSkipRows  = 40
	InputColumnCount = 6

	// Continuous model calibration. The weights must add up to MaxScore.
	MaxScore                  = 10.0
	weightsTolerance          = 1e-9
	DefaultAmplitudeWeight    = 3.0
	DefaultNoiseWeight        = 3.0
	DefaultSlopeWeight        = 4.0
	DefaultMaxDeltaRnScale    = 20000.0
	DefaultBaselineNoiseScale = 1000.0
	DefaultMaxSlopeScale      = 4000.0
	DefaultBaselineCycles     = 10

	// Discrete model thresholds
	DefaultDiscreteMinDeltaRn = 5000.0
	DefaultDiscreteMaxNoise   = 500.0
	DefaultDiscreteMinSlope   = 1500.0

	// Export
	DefaultExportFileName = "avaliacao_qpcr.csv"
	CSVContentType        = "text/csv"

	// Server
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	UploadFormField       = "file"

	// Log Settings
	DefaultLogLevel = "info"

	// API Endpoints. Score, health and version are mounted under APIBasePath.
	APIBasePath     = "/api"
	ScoreEndpoint   = "/score"
	HealthEndpoint  = "/health"
	VersionEndpoint = "/version"
	MetricsEndpoint = "/metrics"
)

// InputColumns lists the amplification table columns in file order.
var InputColumns = []string{"Run", "Well", "Cycle", "Sample", "Fluorescence", "DeltaRn"}

// OutputColumns lists the result CSV header in file order, without the
// optional source column.
var OutputColumns = []string{"Well", "Sample", "DeltaRn_final", "Ruido_baseline", "Derivada_max", "Nota", "Classificacao"}

// SourceColumn is the header of the optional leading source-file column.
const SourceColumn = "Arquivo"
