package observability

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event helpers give every selection run the same log vocabulary. They only
// write logs; nothing they emit feeds back into a plan or its fingerprints.

func BlueprintParsed(l *zap.Logger, contentLen int, format string) {
	l.Info("Blueprint parsed",
		zap.Int("content_length", contentLen),
		zap.String("format", format))
}

func SelectionStarted(l *zap.Logger, project string, seed uint64) {
	l.Info("Starting technology selection",
		zap.String("project", project),
		zap.Uint64("seed", seed))
}

// ConstraintEvaluated records one constraint check against one candidate.
func ConstraintEvaluated(l *zap.Logger, constraint, candidate string, limit, actual float64, passed bool) {
	if ce := l.Check(zap.DebugLevel, "Constraint evaluated"); ce != nil {
		ce.Write(
			zap.String("constraint", constraint),
			zap.String("candidate", candidate),
			zap.Float64("limit", limit),
			zap.Float64("actual", actual),
			zap.Bool("passed", passed))
	}
}

// CandidateRejected records a candidate dropped by a non-numeric constraint.
func CandidateRejected(l *zap.Logger, category, candidate, constraint string) {
	l.Debug("Candidate rejected",
		zap.String("category", category),
		zap.String("candidate", candidate),
		zap.String("constraint", constraint))
}

// CandidateScored records the final score and its per-metric breakdown.
func CandidateScored(l *zap.Logger, category, candidate string, score float64, breakdown zapcore.ObjectMarshaler) {
	if ce := l.Check(zap.DebugLevel, "Candidate scored"); ce != nil {
		ce.Write(
			zap.String("category", category),
			zap.String("candidate", candidate),
			zap.Float64("score", score),
			zap.Object("breakdown", breakdown))
	}
}

func TieBroken(l *zap.Logger, category string, seed uint64, tied []string, choice string) {
	l.Debug("Tie broken",
		zap.String("category", category),
		zap.Uint64("seed", seed),
		zap.Strings("tied", tied),
		zap.String("choice", choice))
}

func CategoryDecided(l *zap.Logger, category, choice string, score float64) {
	l.Debug("Category decided",
		zap.String("category", category),
		zap.String("choice", choice),
		zap.Float64("score", score))
}

// SelectionFinished records the resolved stack. stack is logged as given.
func SelectionFinished(l *zap.Logger, stack zapcore.ObjectMarshaler, totalCost float64, planHash string) {
	l.Info("Selection completed",
		zap.Object("stack", stack),
		zap.Float64("total_cost", totalCost),
		zap.String("plan_hash", planHash))
}

func SelectionFailed(l *zap.Logger, stage string, err error) {
	l.Error("Selection failed", zap.String("stage", stage), zap.Error(err))
}

// StartOperation logs the start of a named operation and returns a function
// that logs its completion and duration.
func StartOperation(l *zap.Logger, name string) func() {
	start := time.Now()
	l.Info("Starting operation", zap.String("operation", name))
	return func() {
		l.Info("Operation completed",
			zap.String("operation", name),
			zap.Duration("duration", time.Since(start)))
	}
}
