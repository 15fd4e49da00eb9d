package config

// MailConfig holds SMTP settings.  When Host is empty the application runs
// with a mailer that only writes to the mail log.
type MailConfig struct {
    Host     string
    Port     int
    Username string
    Password string
    From     string
    TLS      bool
}

func LoadMailConfig() MailConfig {
    return MailConfig{
        Host:     envStr("SMTP_HOST", ""),
        Port:     envInt("SMTP_PORT", 587),
        Username: envStr("SMTP_USER", ""),
        Password: envStr("SMTP_PASS", ""),
        From:     envStr("SMTP_FROM", envStr("SMTP_USER", "")),
        TLS:      envBool("SMTP_TLS", true),
    }
}

// Enabled reports whether enough is configured to talk to a real server.
func (m MailConfig) Enabled() bool { return m.Host != "" && m.From != "" }
