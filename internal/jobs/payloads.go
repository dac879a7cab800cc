package jobs

// WelcomeEmailPayload carries what the worker needs to greet a freshly
// signed-up user. ID-based plus display fields so the worker avoids a
// DB round trip for the common case.
type WelcomeEmailPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
