package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Notification kinds. The kind also keys mock emails stored in Redis.
const (
	KindPurchaseCreated = "purchase_created"
	KindInquiryCreated  = "inquiry_created"
	KindInquiryReplied  = "inquiry_replied"
)

type notificationTemplate struct {
	subject *template.Template
	body    *template.Template
}

var notificationTemplates = map[string]notificationTemplate{
	KindPurchaseCreated: {
		subject: template.Must(template.New("s").Parse(`New purchase of {{.WasteType}}`)),
		body: template.Must(template.New("b").Parse(`Hello {{.RecipientName}},

{{.CounterpartName}} has purchased your listing "{{.WasteType}}" ({{.Quantity}} at {{.Price}}).
Order total: ₹{{printf "%.2f" .TotalAmount}}

Sign in to {{.AppName}} to confirm the order.
`)),
	},
	KindInquiryCreated: {
		subject: template.Must(template.New("s").Parse(`New inquiry about {{.WasteType}}`)),
		body: template.Must(template.New("b").Parse(`Hello {{.RecipientName}},

{{.CounterpartName}} asked about your listing "{{.WasteType}}":

{{.Message}}

Sign in to {{.AppName}} to reply.
`)),
	},
	KindInquiryReplied: {
		subject: template.Must(template.New("s").Parse(`{{.CounterpartName}} replied to your inquiry`)),
		body: template.Must(template.New("b").Parse(`Hello {{.RecipientName}},

{{.CounterpartName}} replied to your inquiry about "{{.WasteType}}":

{{.Message}}
`)),
	},
}

// NotificationData fills the notification templates.
type NotificationData struct {
	AppName         string
	RecipientName   string
	CounterpartName string
	WasteType       string
	Quantity        string
	Price           string
	TotalAmount     float64
	Message         string
}

// Render returns the subject and body for a notification kind.
func Render(kind string, data NotificationData) (string, string, error) {
	tmpl, ok := notificationTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return subject.String(), body.String(), nil
}

// KindFromSubject recovers the notification kind from a rendered subject.
func KindFromSubject(subject string) string {
	switch {
	case strings.HasPrefix(subject, "New purchase"):
		return KindPurchaseCreated
	case strings.HasPrefix(subject, "New inquiry"):
		return KindInquiryCreated
	case strings.HasSuffix(subject, "replied to your inquiry"):
		return KindInquiryReplied
	}
	return "unknown"
}
