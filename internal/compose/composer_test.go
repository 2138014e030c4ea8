package compose

import (
	"testing"

	"github.com/acme/outbound-campaign-dispatch/internal/domain"
)

func TestDetectChannel(t *testing.T) {
	cases := []struct {
		description string
		want        domain.Channel
	}{
		{"Channel: Email\nSubject: Hi", domain.ChannelEmail},
		{"channel: EMAIL", domain.ChannelEmail},
		{"Channel: WhatsApp\nTemplate: welcome", domain.ChannelWhatsapp},
		{"Channel: Call", domain.ChannelCall},
		{"reach out over whatsapp and email", domain.ChannelWhatsapp},
		{"spring promotion for loyal customers", domain.ChannelNone},
		{"", domain.ChannelNone},
	}

	for _, tc := range cases {
		if got := DetectChannel(tc.description); got != tc.want {
			t.Errorf("DetectChannel(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

func TestBuildExtractsSubjectAndBody(t *testing.T) {
	msg := Build("Channel: Email\nSubject: Hi\nBody: Hello there")

	if msg.Subject != "Hi" {
		t.Errorf("subject = %q, want %q", msg.Subject, "Hi")
	}
	if msg.Body != "Hello there" {
		t.Errorf("body = %q, want %q", msg.Body, "Hello there")
	}
}

func TestFieldKeyMatchIsCaseInsensitive(t *testing.T) {
	desc := "SUBJECT: Loud\nbody:   quiet   "

	if got := Field(desc, "Subject"); got != "Loud" {
		t.Errorf("subject = %q, want %q", got, "Loud")
	}
	if got := Field(desc, "Body"); got != "quiet" {
		t.Errorf("body = %q, want %q", got, "quiet")
	}
}

func TestFieldValueKeepsEmbeddedColons(t *testing.T) {
	if got := Field("Body: see https://example.com: the docs", "body"); got != "see https://example.com: the docs" {
		t.Errorf("body = %q", got)
	}
}

func TestMissingFieldsComposeEmpty(t *testing.T) {
	msg := Build("Channel: Email")

	if msg.Subject != "" || msg.Body != "" {
		t.Errorf("expected empty fields, got %+v", msg)
	}
}
