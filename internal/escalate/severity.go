package escalate

import (
	"strings"

	"github.com/vietddude/triage/internal/core/domain"
)

// ComputeSeverity applies the ordered severity rules, first match wins.
//
// The "retries exhausted" HIGH trigger reads an explicit caller flag rather
// than the orchestrator's own exhaustion: every escalated fault has by
// definition run out of retries, so keying on that would make MEDIUM and LOW
// unreachable.
func ComputeSeverity(rec *domain.FaultRecord) domain.Severity {
	msg := strings.ToLower(rec.Fault.Message)
	users := rec.Context.Int(domain.CtxUserCount)

	switch {
	case rec.Context.Bool(domain.CtxCriticalDatabase),
		strings.Contains(msg, "payment"),
		strings.Contains(msg, "billing"),
		users > 1000:
		return domain.SeverityCritical

	case rec.Kind == domain.AuthError && users > 100,
		rec.Context.Bool(domain.CtxRetriesExhausted),
		rec.Fault.Code == domain.CodeConnRefused,
		rec.Fault.Code == domain.CodeTimedOut:
		return domain.SeverityHigh

	case len(rec.Attempts) > 1:
		return domain.SeverityMedium

	default:
		return domain.SeverityLow
	}
}

// Escalation targets. On-call variants are paged for CRITICAL severity; team
// queues take everything else.
const (
	TargetDatabaseOnCall = "database-oncall"
	TargetDatabaseTeam   = "database-team"
	TargetAIOnCall       = "ai-oncall"
	TargetAITeam         = "ai-team"
	TargetSecurityOnCall = "security-oncall"
	TargetSecurityTeam   = "security-team"
	TargetPlatformOnCall = "platform-oncall"
	TargetPlatformTeam   = "platform-team"
)

var aiKeywords = []string{"openai", "anthropic", "model", "llm", "completion", "embedding"}

// RouteTarget picks the escalation target by keyword matching on the fault's
// kind and message.
func RouteTarget(rec *domain.FaultRecord, severity domain.Severity) string {
	msg := strings.ToLower(rec.Fault.Message)
	critical := severity == domain.SeverityCritical

	switch {
	case rec.Kind == domain.DatabaseConnectionError ||
		strings.Contains(msg, "database") ||
		strings.Contains(msg, "postgres"):
		return pick(critical, TargetDatabaseOnCall, TargetDatabaseTeam)

	case containsAny(msg, aiKeywords):
		return pick(critical, TargetAIOnCall, TargetAITeam)

	case rec.Kind == domain.AuthError ||
		strings.Contains(msg, "auth") ||
		strings.Contains(msg, "token"):
		return pick(critical, TargetSecurityOnCall, TargetSecurityTeam)

	default:
		return pick(critical, TargetPlatformOnCall, TargetPlatformTeam)
	}
}

func pick(critical bool, oncall, team string) string {
	if critical {
		return oncall
	}
	return team
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
