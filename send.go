package gmail

import (
	"bytes"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport hands composed messages to an SMTP server. The composer itself
// never sends.
type Transport struct {
	Addr     string
	Username string
	Password string
}

// TransportFromConfig builds a Transport from a loaded configuration,
// resolving an empty password the same way DialConfig does.
func TransportFromConfig(cfg *Config) (*Transport, error) {
	password := cfg.Password
	if password == "" {
		p, err := resolvePassword(cfg.Username)
		if err != nil {
			return nil, err
		}
		password = p
	}
	return &Transport{
		Addr:     cfg.SMTPAddr(),
		Username: cfg.Username,
		Password: password,
	}, nil
}

// Send submits one composed message. from is the envelope sender; to holds
// the envelope recipients.
func (t *Transport) Send(from string, to []string, msg []byte) error {
	auth := sasl.NewPlainClient("", t.Username, t.Password)
	if err := smtp.SendMail(t.Addr, auth, from, to, bytes.NewReader(msg)); err != nil {
		return &ProtocolError{Op: "smtp send", Err: err}
	}
	return nil
}
