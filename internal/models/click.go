package models

import "time"

// ClickEvent represents a raw click event intended to be passed through channels.
// This lightweight struct is used for asynchronous processing between goroutines:
// the redirect handler emits one per successful redirect and the click workers
// turn it into a counter increment on the corresponding Link row.
type ClickEvent struct {
	ShortCode string    // The short code that was resolved
	Timestamp time.Time // When the click occurred
	UserAgent string    // Browser/client information
	IPAddress string    // User's IP address
}
