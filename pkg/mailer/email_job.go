package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Bodies are plain text; the reset link and contact messages need nothing more.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}
