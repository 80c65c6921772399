package users

import "unicode"

// ValidUsername accepts 4 to 21 characters of letters, digits, underscore
// or hyphen.
func ValidUsername(username string) bool {
	if len(username) <= 3 || len(username) >= 22 {
		return false
	}
	for _, c := range username {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

// ValidPassword requires at least 8 characters including a digit, a
// lowercase and an uppercase letter.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasDigit, hasLower, hasUpper bool
	for _, c := range password {
		switch {
		case unicode.IsDigit(c):
			hasDigit = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsUpper(c):
			hasUpper = true
		}
	}
	return hasDigit && hasLower && hasUpper
}
