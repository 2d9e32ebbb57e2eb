package config

type AnalyzerConfig struct {
	Concurrency  int   // parallel file analyses
	MaxFileSize  int64 // files larger than this are skipped, bytes
	HistoryDepth int   // complexity history: max commits per file (0 = all)
}

func loadAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Concurrency:  getEnvInt("ANALYZER_CONCURRENCY", 8),
		MaxFileSize:  int64(getEnvInt("ANALYZER_MAX_FILE_SIZE", 1<<20)),
		HistoryDepth: getEnvInt("ANALYZER_HISTORY_DEPTH", 0),
	}
}
