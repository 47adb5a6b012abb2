// Package mailer renders and sends the MessMate emails: OTP codes, invitations
// and the kitchen headcount summary.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"messmate/internal/meal"
)

var templates = template.Must(template.New("layout").Parse(layoutHTML))

func init() {
	template.Must(templates.New("otp").Parse(otpHTML))
	template.Must(templates.New("invite").Parse(inviteHTML))
	template.Must(templates.New("meal_summary").Parse(mealSummaryHTML))
}

// Mailer renders templates and hands them to a Sender.
type Mailer struct {
	sender  Sender
	logoURL string
	now     func() time.Time
}

// New returns a Mailer. logoURL may be empty.
func New(sender Sender, logoURL string) *Mailer {
	return &Mailer{sender: sender, logoURL: logoURL, now: time.Now}
}

// SendOTP mails a verification code.
func (m *Mailer) SendOTP(ctx context.Context, to, otp string) error {
	return m.send(ctx, to, "MessMate OTP Verification", "otp", map[string]any{"OTP": otp})
}

// SendInvite mails the generated login credentials of an invited student.
func (m *Mailer) SendInvite(ctx context.Context, to, fullName, password string) error {
	return m.send(ctx, to, "Your MessMate Login Credentials", "invite", map[string]any{
		"FullName": fullName,
		"Email":    to,
		"Password": password,
	})
}

// SendMealSummary mails the kitchen how many students marked k today.
func (m *Mailer) SendMealSummary(ctx context.Context, to string, k meal.Kind, count int) error {
	upper := strings.ToUpper(k.String())
	return m.send(ctx, to, fmt.Sprintf("Attendance for %s - Today", upper), "meal_summary", map[string]any{
		"Meal":  upper,
		"Count": count,
	})
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data map[string]any) error {
	body, err := m.render(name, data)
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, to, subject, body)
}

func (m *Mailer) render(name string, data map[string]any) (string, error) {
	var content bytes.Buffer
	if err := templates.ExecuteTemplate(&content, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	var page bytes.Buffer
	err := templates.ExecuteTemplate(&page, "layout", map[string]any{
		"LogoURL": m.logoURL,
		"Year":    m.now().Year(),
		"Content": template.HTML(content.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return page.String(), nil
}

const layoutHTML = `<div style="font-family: Arial, sans-serif; background-color: #fffaf5; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background: white; border-radius: 12px; padding: 30px;">
    <div style="text-align: center; margin-bottom: 20px;">
      {{if .LogoURL}}<img src="{{.LogoURL}}" alt="MessMate Logo" width="70" style="margin-bottom: 10px;" />{{end}}
      <h2 style="margin: 0; color: #FF4500;">MessMate</h2>
    </div>
    {{.Content}}
    <div style="margin-top: 30px; text-align: center; font-size: 12px; color: gray;">
      <p>&copy; {{.Year}} MessMate - Hostel Mess Management System</p>
    </div>
  </div>
</div>`

const otpHTML = `<h3 style="color: #333; text-align: center;">Verify Your Identity</h3>
<p style="text-align: center; color: #555;">Use the code below to continue with your verification.</p>
<p style="text-align: center; font-size: 22px; font-weight: bold; letter-spacing: 3px;">{{.OTP}}</p>
<p style="text-align: center; color: #555; font-size: 14px;">This code is valid for <b>5 minutes</b> and can only be used once.</p>`

const inviteHTML = `<h3 style="color: #333; text-align: center;">You've been invited to MessMate!</h3>
<p style="text-align: center; color: #555;">Hi {{.FullName}},</p>
<p style="text-align: center; color: #555;">Here are your login credentials:</p>
<div style="text-align: center; background-color: #f9f9f9; padding: 15px; border-radius: 8px;">
  <p><b>Email:</b> {{.Email}}</p>
  <p><b>Password:</b> {{.Password}}</p>
</div>
<p style="text-align: center; color: #555;">Please change your password after logging in.</p>`

const mealSummaryHTML = `<h3 style="color: #333; text-align: center;">Today's {{.Meal}} Attendance</h3>
<p style="text-align: center; font-size: 20px; font-weight: bold; color: #FF4500;">Total Students: {{.Count}}</p>`
