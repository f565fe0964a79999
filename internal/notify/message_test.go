package notify

import (
	"encoding/json"
	"testing"
)

func TestMessageJSON(t *testing.T) {
	message := NewMessage("heads up")
	attachment := message.AddAttachment("Title", "https://example.com/x", "body", ColorWarning)
	attachment.AddField("Bans", "2")
	attachment.AddButton("Track", "track_someuser", "")
	attachment.AddConfirmButton("Botban", "botban_someuser", "danger", "Really?")

	data, err := message.JSON()
	if err != nil {
		t.Fatalf("JSON error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if decoded["text"] != "heads up" {
		t.Errorf("unexpected text: %v", decoded["text"])
	}

	attachments := decoded["attachments"].([]any)
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	first := attachments[0].(map[string]any)
	if first["color"] != ColorWarning {
		t.Errorf("unexpected color: %v", first["color"])
	}

	actions := first["actions"].([]any)
	if len(actions) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(actions))
	}
	confirm := actions[1].(map[string]any)
	if confirm["value"] != "botban_someuser" {
		t.Errorf("unexpected button value: %v", confirm["value"])
	}
	if _, ok := confirm["confirm"]; !ok {
		t.Error("expected confirm block on guarded button")
	}
}

func TestPlainButtonHasNoConfirm(t *testing.T) {
	message := NewMessage("")
	attachment := message.AddAttachment("t", "", "", ColorGood)
	attachment.AddButton("Verify", "verify_u", "")

	if attachment.Actions[0].Confirm != nil {
		t.Error("plain button must not carry a confirm block")
	}
}
