package apptracker

// AppTracker reports unexpected failures out of the session layer. Expected outcomes such as
// validation errors or a lost signing race are never reported.
type AppTracker interface {
	CaptureMessage(message string)
	CaptureException(exception error)
}
