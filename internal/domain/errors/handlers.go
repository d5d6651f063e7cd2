package errors

// ErrorResponse is the body of every non-2xx response.
// Detail is a string for conflicts and infrastructure faults, and a list of
// Violation for validation failures.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// ResponseDetail picks the body detail for an application error.
func ResponseDetail(appErr AppError) any {
	if verr, ok := appErr.(*ValidationError); ok {
		return verr.Violations()
	}

	return appErr.Message()
}
