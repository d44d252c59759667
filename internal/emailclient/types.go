package emailclient

import "github.com/ignite/newsletter/internal/domain"

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
	sendPath      = "/mail/send"
)

// --- mail send wire types ---

type sendEmailRequest struct {
	From             emailAddress      `json:"from"`
	Personalizations []personalization `json:"personalizations"`
	Subject          string            `json:"subject"`
	Content          []emailContent    `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type emailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// buildSendRequest maps a message onto the wire payload. The plain-text part
// is always content[0] and the HTML part content[1]; receivers index them
// positionally.
func buildSendRequest(msg domain.EmailMessage) sendEmailRequest {
	return sendEmailRequest{
		From: emailAddress{Email: msg.Sender.String()},
		Personalizations: []personalization{
			{To: []emailAddress{{Email: msg.Recipient.String()}}},
		},
		Subject: msg.Subject,
		Content: []emailContent{
			{Type: mimeTextPlain, Value: msg.TextBody},
			{Type: mimeTextHTML, Value: msg.HTMLBody},
		},
	}
}
