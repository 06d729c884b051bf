package accounts

// Result is the structured outcome returned for every lifecycle call
// that crosses the HTTP boundary.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	TextCode string `json:"code,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// ResultFromError converts err into a failed Result. Errors outside the
// taxonomy are reported as a generic failure so internals never leak.
func ResultFromError(err error) Result {
	if err == nil {
		return Result{Success: true}
	}

	richErr, ok := richError(err)
	if !ok {
		return Result{
			Success:  false,
			Message:  "An error occurred",
			TextCode: TextCodeTransientFailure,
		}
	}

	res := Result{
		Success:  false,
		Message:  richErr.Message,
		TextCode: richErr.TextCode,
	}

	if IsTransient(richErr) {
		res.Message = "An error occurred"
		res.TextCode = TextCodeTransientFailure
	}

	if IsValidation(richErr) {
		if fields, ok := richErr.Metadata["fields"]; ok {
			res.Errors = fields
		}
	}

	return res
}
