package types

type BuildKind string

const (
	BuildKindWheel  BuildKind = "wheel"
	BuildKindBinary BuildKind = "binary"
)

var buildKinds = map[BuildKind]struct{}{
	BuildKindWheel:  {},
	BuildKindBinary: {},
}

// BuildKindFromString converts s to a BuildKind and reports whether it is
// one of the supported kinds.
func BuildKindFromString(s string) (kind BuildKind, known bool) {
	kind = BuildKind(s)
	_, known = buildKinds[kind]
	return kind, known
}

type BuildStatus string

const (
	BuildStatusPending    BuildStatus = "pending"
	BuildStatusInProgress BuildStatus = "in_progress"
	BuildStatusSuccess    BuildStatus = "success"
	BuildStatusFailed     BuildStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s BuildStatus) Terminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed
}

// CanTransition reports whether a record in status s may move to next.
func (s BuildStatus) CanTransition(next BuildStatus) bool {
	switch s {
	case BuildStatusPending:
		return next == BuildStatusInProgress
	case BuildStatusInProgress:
		return next == BuildStatusSuccess || next == BuildStatusFailed
	default:
		return false
	}
}

type BuildStage string

const (
	BuildStageNone    BuildStage = ""
	BuildStageResolve BuildStage = "resolve"
	BuildStageFetch   BuildStage = "fetch"
	BuildStageExtract BuildStage = "extract"
	BuildStageExecute BuildStage = "execute"
	BuildStageDone    BuildStage = "done"
)

// LatestVersion is the version placeholder resolved to the index's current
// release.
const LatestVersion = "latest"
