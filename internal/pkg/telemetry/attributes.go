package telemetry

// Span attribute keys shared by the analysis code paths.
const (
	AttrTolerance     = "analysis.tolerance"
	AttrCompound      = "analysis.compound"
	AttrSessions      = "analysis.sessions"
	AttrMultiSessions = "analysis.multi_sessions"
	AttrMismatches    = "analysis.mismatches"
	AttrStage         = "analysis.stage"
	AttrExportPath    = "export.path"
	AttrLoadErrors    = "export.load_errors"
)
