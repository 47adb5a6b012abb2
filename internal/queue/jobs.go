package queue

// Job types carried by Message.Type.
const (
	TypeInviteEmail = "invite_email"
	TypeOTPEmail    = "otp_email"
)

// InviteEmail asks the worker to mail login credentials to an invited student.
type InviteEmail struct {
	To       string `json:"to"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// OTPEmail asks the worker to mail a one-time verification code.
type OTPEmail struct {
	To  string `json:"to"`
	OTP string `json:"otp"`
}
