package emailer

import (
	htmltemplate "html/template"
	"text/template"
)

var inviteText = template.Must(template.New("invite").Parse(`Hello,

You have been invited to register for your photography session.

Finish setting up your account here:
{{.Link}}

This link expires on {{.Expires}}.
`))

var inviteHTML = htmltemplate.Must(htmltemplate.New("invite").Parse(`<p>Hello,</p>
<p>You have been invited to register for your photography session.</p>
<p><a href="{{.Link}}">Finish setting up your account</a></p>
<p>This link expires on {{.Expires}}.</p>
`))

var contactText = template.Must(template.New("contact").Parse(`{{.Name}} <{{.Address}}> wrote:

{{.Message}}
`))

var contactHTML = htmltemplate.Must(htmltemplate.New("contact").Parse(`<p><strong>{{.Name}}</strong> &lt;{{.Address}}&gt; wrote:</p>
<blockquote style="white-space: pre-wrap">{{.Message}}</blockquote>
`))
