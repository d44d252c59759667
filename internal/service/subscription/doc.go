// Package subscription implements the newsletter signup workflow.
//
// Subscribe validates untrusted input into domain values, stores the
// subscriber as pending_confirmation together with a confirmation token, and
// sends a confirmation email carrying a link back to the confirm endpoint.
// Storage happens before delivery and is never rolled back: a subscriber
// whose email failed stays pending and may be redelivered later by the
// worker through Redeliver.
//
// The service layer depends on the Repository, EmailSender, and TokenSource
// interfaces. It never imports net/http or database/sql directly.
package subscription
