package service

// MinPasswordLength is the shortest password accepted on create and authenticate.
const MinPasswordLength = 6

const (
	titleMissingAttribute = "Attribute is missing"
	titleInvalidAttribute = "Invalid attribute"
	titleLoginFailed      = "Can't login user"
)

// validatePassword applies the shared password rules. Errors accumulate so a
// client sees every problem at once rather than one per round trip.
func validatePassword(password string) []FieldError {
	var fields []FieldError

	if password == "" {
		fields = append(fields, FieldError{
			Title:  titleMissingAttribute,
			Detail: "No password specified",
		})
		return fields
	}

	if len(password) < MinPasswordLength {
		fields = append(fields, FieldError{
			Title:  titleInvalidAttribute,
			Detail: "Password must contain at least 6 characters",
		})
	}

	return fields
}

// validateNewUser covers create-only rules on top of the password rules.
func validateNewUser(username, password string) []FieldError {
	var fields []FieldError

	if username == "" {
		fields = append(fields, FieldError{
			Title:  titleMissingAttribute,
			Detail: "No username specified",
		})
	}

	return append(fields, validatePassword(password)...)
}
