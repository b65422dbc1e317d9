package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Question set ──────────────────────────────────────────────────
	ErrEmptyQuestionSet   ErrCode = "EMPTY_QUESTION_SET"
	ErrInvalidQuestionSet ErrCode = "INVALID_QUESTION_SET"
	ErrInvalidDuration    ErrCode = "INVALID_DURATION"

	// ─── Session ───────────────────────────────────────────────────────
	ErrSessionNotFound     ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotActive    ErrCode = "SESSION_NOT_ACTIVE"
	ErrInvalidTransition   ErrCode = "INVALID_STATE_TRANSITION"
	ErrIndexOutOfRange     ErrCode = "INDEX_OUT_OF_RANGE"
	ErrInvalidOption       ErrCode = "INVALID_OPTION"
	ErrUnknownSubject      ErrCode = "UNKNOWN_SUBJECT"
	ErrResultPending       ErrCode = "RESULT_PENDING"
	ErrMonitorNotListening ErrCode = "MONITOR_NOT_LISTENING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."

	// ─── Question set ──────────────────────────────────────────────────
	case ErrEmptyQuestionSet:
		return "Paket soal tidak memiliki pertanyaan."
	case ErrInvalidQuestionSet:
		return "Paket soal tidak valid."
	case ErrInvalidDuration:
		return "Durasi ujian harus lebih dari nol."

	// ─── Session ───────────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Sesi ujian tidak ditemukan."
	case ErrSessionNotActive:
		return "Sesi ujian tidak sedang berlangsung."
	case ErrInvalidTransition:
		return "Sesi ujian sudah dimulai."
	case ErrIndexOutOfRange:
		return "Nomor soal di luar jangkauan."
	case ErrInvalidOption:
		return "Pilihan jawaban tidak valid untuk soal ini."
	case ErrUnknownSubject:
		return "Mata pelajaran tidak ada dalam paket soal."
	case ErrResultPending:
		return "Ujian belum dikumpulkan."
	case ErrMonitorNotListening:
		return "Pemantauan integritas sudah berakhir untuk sesi ini."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
