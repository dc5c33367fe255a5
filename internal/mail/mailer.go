// Package mail holds the notification dispatch boundary.
package mail

import "context"

// Mailer attempts delivery of a single HTML email. Implementations must
// honor the context deadline; flows apply a timeout so a slow dispatcher
// cannot stall a request.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
