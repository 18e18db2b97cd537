package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// The prefix before the underscore names the owning module.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// CodeOK is the sentinel returned by GetCode for a nil error.
const CodeOK = ErrorCode("OK")

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Lexicon store error codes.
const (
	ErrCodeLexiconEntryNotFound   ErrorCode = "LEX_001"
	ErrCodeLexiconEntryMalformed  ErrorCode = "LEX_002"
	ErrCodeLexiconSourceUnknown   ErrorCode = "LEX_003"
	ErrCodeLexiconImportFailed    ErrorCode = "LEX_004"
	ErrCodeLexiconMergeConflict   ErrorCode = "LEX_005"
	ErrCodeLexiconSourceFileError ErrorCode = "LEX_006"
)

// Semantic tagset error codes.
const (
	ErrCodeTagsetNodeNotFound  ErrorCode = "TAG_001"
	ErrCodeTagsetOrphanNode    ErrorCode = "TAG_002"
	ErrCodeTagsetDepthInvalid  ErrorCode = "TAG_003"
	ErrCodeTagsetCycleDetected ErrorCode = "TAG_004"
)

// POS resolution error codes.
const (
	ErrCodePOSUnresolved        ErrorCode = "POS_001"
	ErrCodePOSTaggerUnavailable ErrorCode = "POS_002"
	ErrCodePOSNotationUnknown   ErrorCode = "POS_003"
)

// Semantic classification error codes.
const (
	ErrCodeClassificationFailed   ErrorCode = "SEM_001"
	ErrCodeClassificationConflict ErrorCode = "SEM_002"
	ErrCodeDomainCodeUnknown      ErrorCode = "SEM_003"
)

// Synonym propagation error codes.
const (
	ErrCodePropagationSeedUnclassified ErrorCode = "PRO_001"
	ErrCodeSynonymGraphUnavailable     ErrorCode = "PRO_002"
)

// Batch job error codes.
const (
	ErrCodeJobNotFound           ErrorCode = "JOB_001"
	ErrCodeJobInvalidTransition  ErrorCode = "JOB_002"
	ErrCodeJobAlreadyTerminal    ErrorCode = "JOB_003"
	ErrCodeJobChunkRegression    ErrorCode = "JOB_004"
	ErrCodeJobPersistenceFailed  ErrorCode = "JOB_005"
	ErrCodeJobContinuationFailed ErrorCode = "JOB_006"
)

// External model (LLM / statistical tagger) error codes.
const (
	ErrCodeLLMCallFailed        ErrorCode = "LLM_001"
	ErrCodeLLMEmptyResponse     ErrorCode = "LLM_002"
	ErrCodeLLMResponseMalformed ErrorCode = "LLM_003"
	ErrCodeLLMBatchTooLarge     ErrorCode = "LLM_004"
)

// ErrorCodeHTTPStatus maps every ErrorCode to the HTTP status returned by the
// job-control API.  Codes missing from the map default to 500.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeLexiconEntryNotFound:   http.StatusNotFound,
	ErrCodeLexiconEntryMalformed:  http.StatusUnprocessableEntity,
	ErrCodeLexiconSourceUnknown:   http.StatusBadRequest,
	ErrCodeLexiconImportFailed:    http.StatusInternalServerError,
	ErrCodeLexiconMergeConflict:   http.StatusConflict,
	ErrCodeLexiconSourceFileError: http.StatusBadGateway,

	ErrCodeTagsetNodeNotFound:  http.StatusNotFound,
	ErrCodeTagsetOrphanNode:    http.StatusUnprocessableEntity,
	ErrCodeTagsetDepthInvalid:  http.StatusUnprocessableEntity,
	ErrCodeTagsetCycleDetected: http.StatusUnprocessableEntity,

	ErrCodePOSUnresolved:        http.StatusUnprocessableEntity,
	ErrCodePOSTaggerUnavailable: http.StatusBadGateway,
	ErrCodePOSNotationUnknown:   http.StatusUnprocessableEntity,

	ErrCodeClassificationFailed:   http.StatusInternalServerError,
	ErrCodeClassificationConflict: http.StatusConflict,
	ErrCodeDomainCodeUnknown:      http.StatusUnprocessableEntity,

	ErrCodePropagationSeedUnclassified: http.StatusUnprocessableEntity,
	ErrCodeSynonymGraphUnavailable:     http.StatusServiceUnavailable,

	ErrCodeJobNotFound:           http.StatusNotFound,
	ErrCodeJobInvalidTransition:  http.StatusConflict,
	ErrCodeJobAlreadyTerminal:    http.StatusConflict,
	ErrCodeJobChunkRegression:    http.StatusConflict,
	ErrCodeJobPersistenceFailed:  http.StatusInternalServerError,
	ErrCodeJobContinuationFailed: http.StatusInternalServerError,

	ErrCodeLLMCallFailed:        http.StatusBadGateway,
	ErrCodeLLMEmptyResponse:     http.StatusBadGateway,
	ErrCodeLLMResponseMalformed: http.StatusBadGateway,
	ErrCodeLLMBatchTooLarge:     http.StatusBadRequest,
}

// ErrorCodeMessage provides the default human-readable message per code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeLexiconEntryNotFound:   "lexicon entry not found",
	ErrCodeLexiconEntryMalformed:  "malformed lexicon entry",
	ErrCodeLexiconSourceUnknown:   "unknown lexicon provenance source",
	ErrCodeLexiconImportFailed:    "lexicon import failed",
	ErrCodeLexiconMergeConflict:   "lexicon merge conflict",
	ErrCodeLexiconSourceFileError: "failed to fetch lexicon source file",

	ErrCodeTagsetNodeNotFound:  "tagset node not found",
	ErrCodeTagsetOrphanNode:    "tagset node above depth 1 has no parent",
	ErrCodeTagsetDepthInvalid:  "tagset node depth out of range",
	ErrCodeTagsetCycleDetected: "tagset hierarchy contains a cycle",

	ErrCodePOSUnresolved:        "part of speech could not be resolved",
	ErrCodePOSTaggerUnavailable: "statistical tagger unavailable",
	ErrCodePOSNotationUnknown:   "unknown dictionary POS notation",

	ErrCodeClassificationFailed:   "semantic classification failed",
	ErrCodeClassificationConflict: "conflicting classification records",
	ErrCodeDomainCodeUnknown:      "unknown semantic domain code",

	ErrCodePropagationSeedUnclassified: "propagation seed word has no classification",
	ErrCodeSynonymGraphUnavailable:     "synonym graph unavailable",

	ErrCodeJobNotFound:           "batch job not found",
	ErrCodeJobInvalidTransition:  "invalid batch job state transition",
	ErrCodeJobAlreadyTerminal:    "batch job already in a terminal state",
	ErrCodeJobChunkRegression:    "batch job chunk index may not regress",
	ErrCodeJobPersistenceFailed:  "failed to persist batch job progress",
	ErrCodeJobContinuationFailed: "failed to schedule batch job continuation",

	ErrCodeLLMCallFailed:        "LLM classification call failed",
	ErrCodeLLMEmptyResponse:     "LLM returned no usable content",
	ErrCodeLLMResponseMalformed: "LLM response could not be parsed",
	ErrCodeLLMBatchTooLarge:     "LLM batch exceeds maximum size",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode ("LEX", "JOB", …).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
