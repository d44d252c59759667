package subscription

import (
	"fmt"
	"net/url"

	"github.com/osteele/liquid"
)

const confirmationSubject = "Welcome!"

const confirmationHTML = `Welcome to our newsletter!<br />` +
	`Click <a href="{{ link | escape }}">here</a> to confirm your subscription.`

const confirmationText = "Welcome to our newsletter!\nVisit {{ link }} to confirm your subscription."

// confirmationTemplates holds the parsed bodies of the confirmation email.
// Both parts render the same link.
type confirmationTemplates struct {
	html *liquid.Template
	text *liquid.Template
}

func newConfirmationTemplates() (*confirmationTemplates, error) {
	engine := liquid.NewEngine()

	html, err := engine.ParseString(confirmationHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing html template: %w", err)
	}
	text, err := engine.ParseString(confirmationText)
	if err != nil {
		return nil, fmt.Errorf("parsing text template: %w", err)
	}
	return &confirmationTemplates{html: html, text: text}, nil
}

func (t *confirmationTemplates) render(link string) (htmlBody, textBody string, err error) {
	bindings := liquid.Bindings{"link": link}

	htmlBody, err = t.html.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering html body: %w", err)
	}
	textBody, err = t.text.RenderString(bindings)
	if err != nil {
		return "", "", fmt.Errorf("rendering text body: %w", err)
	}
	return htmlBody, textBody, nil
}

// confirmationLink builds {baseURL}/subscriptions/confirm?subscription_token=<token>.
func confirmationLink(baseURL, token string) string {
	return baseURL + "/subscriptions/confirm?subscription_token=" + url.QueryEscape(token)
}
