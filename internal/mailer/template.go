package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Header}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>{{.Header}}</h2>
		<p>Hello {{.Username}},</p>
		<p>{{.Message}}</p>
		{{if .ImageURL}}<p><img src="{{.ImageURL}}" alt="" style="max-width: 100%;"></p>{{end}}
		{{if .AppLink}}<p><a href="{{.AppLink}}">Open the app</a></p>{{end}}
	</div>
</body>
</html>
`))

var resetPasswordTmpl = template.Must(template.New("resetPassword").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Password Reset Confirmation</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h2>Password Reset Confirmation</h2>
		<p>Hello {{.Username}},</p>
		<p>The password of the account {{.Email}} was changed on {{.Date}}.</p>
		<p>If you did not make this change, contact support immediately.</p>
	</div>
</body>
</html>
`))

// NotificationTemplate 评论 / 表情 / 关注 / 私信提醒邮件
type NotificationTemplate struct {
	Username string
	Message  string
	Header   string
	ImageURL string
	AppLink  string
}

func (t NotificationTemplate) Render() (string, error) {
	return render(notificationTmpl, t)
}

// ResetPasswordTemplate 修改密码后的确认邮件
type ResetPasswordTemplate struct {
	Username string
	Email    string
	Date     string
}

func (t ResetPasswordTemplate) Render() (string, error) {
	return render(resetPasswordTmpl, t)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
