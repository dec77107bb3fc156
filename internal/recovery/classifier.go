package recovery

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/triage/internal/core/domain"
)

// Datastore names recognized by the database-connection rule.
var datastoreNames = []string{"database", "db", "postgres", "mysql", "mongo", "redis"}

// Dependent services recognized by the dependent-service rule. These are the
// host application's upstream collaborators.
var dependentServices = []string{"spotify", "musicbrainz", "lastfm", "openai", "anthropic"}

var networkCodes = map[string]bool{
	domain.CodeConnRefused:  true,
	domain.CodeConnReset:    true,
	domain.CodeHostUnreach:  true,
	domain.CodeHostNotFound: true,
	domain.CodeDNSFailure:   true,
}

// Classify maps a raw fault to one fault kind. Pure and deterministic:
// case-insensitive substring matching against message and structured code,
// first match wins. Unknown input classifies as GenericError; Classify never
// panics.
func Classify(fault domain.Fault) domain.FaultKind {
	msg := strings.ToLower(fault.Message)
	code := strings.ToUpper(fault.Code)

	grpcKind, hasGRPC := classifyGRPC(fault.Err)

	switch {
	case strings.Contains(msg, "connection") && containsAny(msg, datastoreNames):
		return domain.DatabaseConnectionError

	case strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		code == domain.CodeRateLimited ||
		(hasGRPC && grpcKind == domain.RateLimitError):
		return domain.RateLimitError

	case strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "token") ||
		code == domain.CodeUnauthorized ||
		(hasGRPC && grpcKind == domain.AuthError):
		return domain.AuthError

	case strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		code == domain.CodeRequestTimeout ||
		code == domain.CodeTimedOut ||
		(hasGRPC && grpcKind == domain.TimeoutError):
		return domain.TimeoutError

	case strings.Contains(msg, "unavailable") && containsAny(msg, dependentServices):
		return domain.DependentServiceError

	case strings.Contains(msg, "network") ||
		strings.Contains(msg, "connection refused") ||
		networkCodes[code] ||
		(hasGRPC && grpcKind == domain.NetworkError):
		return domain.NetworkError

	default:
		return domain.GenericError
	}
}

// classifyGRPC maps a gRPC status code carried by the error, if any.
func classifyGRPC(err error) (domain.FaultKind, bool) {
	if err == nil {
		return domain.GenericError, false
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK || st.Code() == codes.Unknown {
		return domain.GenericError, false
	}

	switch st.Code() {
	case codes.ResourceExhausted:
		return domain.RateLimitError, true
	case codes.Unauthenticated, codes.PermissionDenied:
		return domain.AuthError, true
	case codes.DeadlineExceeded:
		return domain.TimeoutError, true
	case codes.Unavailable:
		return domain.NetworkError, true
	}
	return domain.GenericError, false
}

func containsAny(s string, names []string) bool {
	for _, n := range names {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
