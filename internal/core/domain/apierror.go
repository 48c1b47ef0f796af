package domain

// APIErrorCode is the numeric `code` of a gateway error body.
type APIErrorCode int

// ErrorCategory groups gateway codes by how a caller should react.
type ErrorCategory string

const (
	CategoryGeneral        ErrorCategory = "general"
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryDeclined       ErrorCategory = "declined"
	CategoryDuplicate      ErrorCategory = "duplicate"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryThreeDSecure   ErrorCategory = "three_d_secure"
	CategoryGateway        ErrorCategory = "gateway"
	CategoryUnknown        ErrorCategory = "unknown"
)

// CodeUnreadable marks an error body whose code was not an integer.
const CodeUnreadable APIErrorCode = -1

const (
	CodeGeneralError           APIErrorCode = 0
	CodeGeneralModelError      APIErrorCode = 1
	CodeUnauthorized           APIErrorCode = 7
	CodePaymentSystemError     APIErrorCode = 9
	CodePaymentDeclined        APIErrorCode = 11
	CodePaymentFailed          APIErrorCode = 12
	CodeTransactionNotFound    APIErrorCode = 19
	CodeValidationError        APIErrorCode = 40
	CodeDuplicateTransaction   APIErrorCode = 86
	CodeThreeDSecureRequired   APIErrorCode = 501
	CodeThreeDSecureFailed     APIErrorCode = 502
	CodeCardTokenInvalid       APIErrorCode = 503
	CodeAccountLocationBlocked APIErrorCode = 504
)

var apiErrorCategories = map[APIErrorCode]ErrorCategory{
	CodeGeneralError:           CategoryGeneral,
	CodeGeneralModelError:      CategoryValidation,
	CodeUnauthorized:           CategoryAuthentication,
	CodePaymentSystemError:     CategoryGateway,
	CodePaymentDeclined:        CategoryDeclined,
	CodePaymentFailed:          CategoryDeclined,
	CodeTransactionNotFound:    CategoryNotFound,
	CodeValidationError:        CategoryValidation,
	CodeDuplicateTransaction:   CategoryDuplicate,
	CodeThreeDSecureRequired:   CategoryThreeDSecure,
	CodeThreeDSecureFailed:     CategoryThreeDSecure,
	CodeCardTokenInvalid:       CategoryValidation,
	CodeAccountLocationBlocked: CategoryDeclined,
}

// Known reports whether c is a documented gateway code.
func (c APIErrorCode) Known() bool {
	_, ok := apiErrorCategories[c]
	return ok
}

// Category returns the category of c, CategoryUnknown for undocumented codes.
func (c APIErrorCode) Category() ErrorCategory {
	if cat, ok := apiErrorCategories[c]; ok {
		return cat
	}
	return CategoryUnknown
}
