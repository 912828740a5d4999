package protocol

import (
	"testing"
)

func TestParseChatRequestValid(t *testing.T) {
	raw := []byte(`{"messages":[{"sender":"bot","text":"hi"},{"sender":"user","text":"water risk in Chennai?"}]}`)
	req, err := ParseChatRequest(raw)
	if err != nil {
		t.Fatalf("ParseChatRequest error = %v", err)
	}
	if got := req.Prompt(); got != "water risk in Chennai?" {
		t.Fatalf("Prompt() = %q, want %q", got, "water risk in Chennai?")
	}
}

func TestParseChatRequestRejectsMissingMessages(t *testing.T) {
	for _, raw := range []string{`{}`, `{"messages":[]}`, `not json`} {
		if _, err := ParseChatRequest([]byte(raw)); err == nil {
			t.Fatalf("ParseChatRequest(%q) expected error", raw)
		}
	}
}

func TestParseChatRequestRejectsNonUserFinalMessage(t *testing.T) {
	raw := []byte(`{"messages":[{"sender":"user","text":"hi"},{"sender":"bot","text":"hello"}]}`)
	if _, err := ParseChatRequest(raw); err != ErrLastNotUser {
		t.Fatalf("err = %v, want ErrLastNotUser", err)
	}
}

func TestMapSenderRole(t *testing.T) {
	cases := map[string]Role{
		"user":    RoleUser,
		"USER":    RoleUser,
		"bot":     RoleAssistant,
		"service": RoleSystem,
		"":        RoleSystem,
	}
	for sender, want := range cases {
		if got := MapSenderRole(sender); got != want {
			t.Fatalf("MapSenderRole(%q) = %q, want %q", sender, got, want)
		}
	}
}

func TestParseRisk(t *testing.T) {
	for _, ok := range []string{"Low", "Medium", "High", " High "} {
		if _, err := ParseRisk(ok); err != nil {
			t.Fatalf("ParseRisk(%q) error = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "low", "Severe", "HIGH"} {
		if _, err := ParseRisk(bad); err == nil {
			t.Fatalf("ParseRisk(%q) expected error", bad)
		}
	}
}
