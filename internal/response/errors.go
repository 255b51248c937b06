package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrPermissionDenied  ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Mock-test specific ────────────────────────────────────────────
	ErrTestNotAvailable    ErrCode = "TEST_NOT_AVAILABLE"
	ErrTestNotPublished    ErrCode = "TEST_NOT_PUBLISHED"
	ErrTestNotDraft        ErrCode = "TEST_NOT_DRAFT"
	ErrNoQuestions         ErrCode = "NO_QUESTIONS"
	ErrInvalidQuestion     ErrCode = "INVALID_QUESTION"
	ErrAttemptNotActive    ErrCode = "ATTEMPT_NOT_ACTIVE"
	ErrAttemptFinished     ErrCode = "ATTEMPT_ALREADY_FINISHED"
	ErrMarksMismatch       ErrCode = "TOTAL_MARKS_MISMATCH"
	ErrQuestionUnpublished ErrCode = "QUESTION_NOT_PUBLISHED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable (Bengali) message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "ইমেইল অথবা পাসওয়ার্ড সঠিক নয়।"
	case ErrEmailTaken:
		return "এই ইমেইল দিয়ে ইতিমধ্যে একটি অ্যাকাউন্ট খোলা হয়েছে।"
	case ErrSessionActive:
		return "আপনি ইতিমধ্যে অন্য ডিভাইসে লগইন করেছেন।"
	case ErrSessionInvalidated:
		return "আপনার সেশন শেষ হয়ে গেছে। অনুগ্রহ করে আবার লগইন করুন।"
	case ErrTokenRequired:
		return "প্রমাণীকরণ টোকেন প্রয়োজন।"
	case ErrTokenInvalid:
		return "প্রমাণীকরণ টোকেন সঠিক নয়।"
	case ErrTokenExpired:
		return "প্রমাণীকরণ টোকেনের মেয়াদ শেষ।"

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "এই রিসোর্সে প্রবেশের অনুমতি আপনার নেই।"
	case ErrPermissionDenied:
		return "অনুমতি প্রত্যাখ্যান করা হয়েছে।"
	case ErrStudentAccessOnly:
		return "এই রিসোর্স শুধুমাত্র শিক্ষার্থীদের জন্য।"
	case ErrAdminAccessOnly:
		return "এই রিসোর্স শুধুমাত্র অ্যাডমিনদের জন্য।"

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "যাচাইকরণ ব্যর্থ হয়েছে। অনুগ্রহ করে আপনার তথ্য পরীক্ষা করুন।"
	case ErrInvalidID:
		return "আইডির ফরম্যাট সঠিক নয়।"
	case ErrInvalidPayload:
		return "অনুরোধের পেলোড সঠিক নয়।"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "রিসোর্সটি খুঁজে পাওয়া যায়নি।"
	case ErrConflict:
		return "রিসোর্সটি ইতিমধ্যে বিদ্যমান।"
	case ErrDependencyExists:
		return "অন্য ডেটায় ব্যবহৃত হওয়ায় এটি মুছে ফেলা যাবে না।"
	case ErrActionForbidden:
		return "এই কাজটি অনুমোদিত নয়।"

	// ─── Mock-test specific ────────────────────────────────────────────
	case ErrTestNotAvailable:
		return "এই মডেল টেস্টটি এখন উপলব্ধ নয়।"
	case ErrTestNotPublished:
		return "এই মডেল টেস্টটি এখনো প্রকাশিত হয়নি।"
	case ErrTestNotDraft:
		return "এই মডেল টেস্টটি খসড়া অবস্থায় নেই।"
	case ErrNoQuestions:
		return "এই মডেল টেস্টে কোনো প্রশ্ন নেই।"
	case ErrInvalidQuestion:
		return "প্রশ্নটি সঠিকভাবে গঠিত নয় (এমসিকিউতে কমপক্ষে ২টি অপশন ও ১টি সঠিক উত্তর থাকতে হবে)।"
	case ErrAttemptNotActive:
		return "এই টেস্টের কোনো চলমান পরীক্ষা নেই।"
	case ErrAttemptFinished:
		return "এই টেস্টের পরীক্ষা ইতিমধ্যে শেষ হয়েছে।"
	case ErrMarksMismatch:
		return "টেস্টের মোট নম্বর প্রশ্নের নম্বরের যোগফলের সাথে মিলছে না।"
	case ErrQuestionUnpublished:
		return "অপ্রকাশিত প্রশ্ন মডেল টেস্টে যোগ করা যাবে না।"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "অনেক বেশি অনুরোধ। অনুগ্রহ করে একটু পরে আবার চেষ্টা করুন।"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "অভ্যন্তরীণ সার্ভার ত্রুটি ঘটেছে।"
	default:
		return "একটি অপ্রত্যাশিত ত্রুটি ঘটেছে।"
	}
}
