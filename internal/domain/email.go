package domain

// EmailMessage is a single outbound transactional email. It exists only for
// the duration of one delivery attempt and is never persisted.
type EmailMessage struct {
	Sender    SubscriberEmail
	Recipient SubscriberEmail
	Subject   string
	HTMLBody  string
	TextBody  string
}
