package services

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

var ticketHTMLTemplate = htmltemplate.Must(htmltemplate.New("ticket-html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Your {{.Category}} ticket</h2>
  <p>Ticket ID: <strong>{{.TicketID}}</strong></p>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  {{if .Perks}}<p>Included with your ticket:</p>
  <ul>{{range .Perks}}
    <li>{{.}}</li>{{end}}
  </ul>{{end}}
  {{if .ImageURL}}<p><img src="{{.ImageURL}}" alt="Ticket QR code" width="256" height="256"></p>
  {{else if .QRCode}}<p><img src="cid:` + qrAttachmentName + `" alt="Ticket QR code" width="256" height="256"></p>{{end}}
  <p>Present this QR code at the entrance. It can be used once.</p>
</body>
</html>
`))

var ticketTextTemplate = texttemplate.Must(texttemplate.New("ticket-text").Parse(`Your {{.Category}} ticket

Ticket ID: {{.TicketID}}
{{if .Description}}
{{.Description}}
{{end}}{{if .Perks}}
Included with your ticket:
{{range .Perks}}  - {{.}}
{{end}}{{end}}{{if .ImageURL}}
QR code: {{.ImageURL}}
{{end}}
Present your QR code at the entrance. It can be used once.
`))

// RenderTicketEmail returns the HTML and plain-text bodies for msg.
func RenderTicketEmail(msg TicketMessage) (string, string, error) {
	var html, text bytes.Buffer
	if err := ticketHTMLTemplate.Execute(&html, msg); err != nil {
		return "", "", err
	}
	if err := ticketTextTemplate.Execute(&text, msg); err != nil {
		return "", "", err
	}
	return html.String(), text.String(), nil
}
