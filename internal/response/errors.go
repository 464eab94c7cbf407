package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Class / enrollment ────────────────────────────────────────────
	ErrInvalidJoinCode  ErrCode = "INVALID_JOIN_CODE"
	ErrAlreadyEnrolled  ErrCode = "ALREADY_ENROLLED"
	ErrNotEnrolled      ErrCode = "NOT_ENROLLED"
	ErrNotClassTeacher  ErrCode = "NOT_CLASS_TEACHER"

	// ─── Quiz / attempt ────────────────────────────────────────────────
	ErrQuizNotPublished     ErrCode = "QUIZ_NOT_PUBLISHED"
	ErrQuizNotStarted       ErrCode = "QUIZ_NOT_STARTED"
	ErrQuizClosed           ErrCode = "QUIZ_CLOSED"
	ErrQuizNotDraft         ErrCode = "QUIZ_NOT_DRAFT"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrNotQuizOwner         ErrCode = "NOT_QUIZ_OWNER"
	ErrActiveAttempt        ErrCode = "ACTIVE_ATTEMPT"
	ErrAttemptSubmitted     ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrInvalidQuestionShape ErrCode = "INVALID_QUESTION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
//
// Some messages deliberately carry the exact substrings older clients
// pattern-match on ("not enrolled", "not started", "active attempt");
// the code is the contract, the substring is backward compatibility.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "This record is still referenced by other data and cannot be deleted."

	// ─── Class / enrollment ────────────────────────────────────────────
	case ErrInvalidJoinCode:
		return "Invalid class join code."
	case ErrAlreadyEnrolled:
		return "You are already enrolled in this class."
	case ErrNotEnrolled:
		return "You are not enrolled in the class this quiz belongs to."
	case ErrNotClassTeacher:
		return "You are not the teacher of this class."

	// ─── Quiz / attempt ────────────────────────────────────────────────
	case ErrQuizNotPublished:
		return "This quiz has not been published."
	case ErrQuizNotStarted:
		return "This quiz has not started yet."
	case ErrQuizClosed:
		return "This quiz is closed and no longer accepts submissions."
	case ErrQuizNotDraft:
		return "This quiz is not in draft status."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrNotQuizOwner:
		return "You are not the owner of this quiz."
	case ErrActiveAttempt:
		return "You already have an active attempt for this quiz."
	case ErrAttemptSubmitted:
		return "This attempt has already been submitted."
	case ErrInvalidQuestionShape:
		return "One or more questions are invalid."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
