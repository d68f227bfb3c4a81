package config

const (
	defaultDataDir     = "../data"
	defaultResultsDir  = "../results"
	defaultLogDir      = "../results/logs"
	defaultAWSBinary   = "aws"
	defaultViewerURL   = "https://aind-neuroglancer-sauujisjxq-uw.a.run.app"
	defaultPalette     = "fpbase"
	defaultVersion     = "2.0.2"
	defaultProcessor   = "Camilo Laiton"
	defaultRepository  = "https://github.com/AllenNeuralDynamics/aind-smartspim-pipeline"
	defaultJournalPath = "../results/logs/relocations.db"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns the repository defaults, matching the capsule deployment
// layout of sibling data and results directories.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			ResultsDir: defaultResultsDir,
			LogDir:     defaultLogDir,
		},
		Storage: Storage{},
		Transfer: Transfer{
			AWSBinary: defaultAWSBinary,
		},
		Viewer: Viewer{
			BaseURL: defaultViewerURL,
			Palette: defaultPalette,
		},
		Pipeline: Pipeline{
			Version:       defaultVersion,
			Processor:     defaultProcessor,
			RepositoryURL: defaultRepository,
		},
		Journal: Journal{
			Enabled: false,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
