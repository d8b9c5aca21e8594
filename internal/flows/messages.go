package flows

// User-facing status messages.
const (
	MessageLoginSucceeded     = "Login successful! Redirecting..."
	MessageLoginFailed        = "Invalid username or password."
	MessageInvalidResponse    = "Invalid response from server."
	MessageSessionNotSaved    = "Could not save your session."
	MessageRegisterSucceeded  = "Registered successfully!"
	MessageRegistrationFailed = "Registration failed."
)
