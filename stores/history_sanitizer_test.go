package stores

import (
	"testing"

	"github.com/Desarso/parsa/conversation"
)

const notice = "An error occurred. Please try again."

func TestSanitizeHistory_EmptyHistory(t *testing.T) {
	msgs := []conversation.Message{}
	result := SanitizeHistory(msgs, notice)
	if len(result) != 0 {
		t.Errorf("Expected empty result, got %d messages", len(result))
	}
}

func TestSanitizeHistory_ValidHistory(t *testing.T) {
	msgs := []conversation.Message{
		{ID: "1", Role: conversation.RoleUser, Text: "hi"},
		{ID: "2", Role: conversation.RoleModel, Text: "hello"},
		{ID: "3", Role: conversation.RoleUser, Text: "and?"},
		{ID: "4", Role: conversation.RoleModel, Text: "that is all"},
	}
	result := SanitizeHistory(msgs, notice)
	if len(result) != 4 {
		t.Errorf("Expected 4 messages, got %d", len(result))
	}
	if issues := DetectCorruptedHistory(msgs); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issues)
	}
}

func TestSanitizeHistory_InterruptedStream(t *testing.T) {
	msgs := []conversation.Message{
		{ID: "1", Role: conversation.RoleUser, Text: "tell me a story"},
		{ID: "2", Role: conversation.RoleModel, Text: "Once upon", Streaming: true},
	}
	result := SanitizeHistory(msgs, notice)
	if len(result) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result))
	}
	if result[1].Streaming {
		t.Errorf("Expected interrupted message to be closed")
	}
	if result[1].Text != notice {
		t.Errorf("Expected notice text, got %q", result[1].Text)
	}
	if msgs[1].Text != "Once upon" {
		t.Errorf("Input slice was modified")
	}
}

func TestSanitizeHistory_DropsUnknownRolesAndDuplicates(t *testing.T) {
	msgs := []conversation.Message{
		{ID: "1", Role: conversation.RoleUser, Text: "hi"},
		{ID: "1", Role: conversation.RoleUser, Text: "hi"},
		{ID: "2", Role: "system", Text: "ignored"},
		{ID: "", Role: conversation.RoleModel, Text: "no id"},
		{ID: "3", Role: conversation.RoleModel, Text: "hello"},
	}
	result := SanitizeHistory(msgs, notice)
	if len(result) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result))
	}
	if result[0].ID != "1" || result[1].ID != "3" {
		t.Errorf("Unexpected ids %s, %s", result[0].ID, result[1].ID)
	}
}

func TestDetectCorruptedHistory(t *testing.T) {
	msgs := []conversation.Message{
		{ID: "1", Role: conversation.RoleUser},
		{ID: "1", Role: conversation.RoleModel, Streaming: true},
		{ID: "2", Role: "tool"},
	}
	issues := DetectCorruptedHistory(msgs)
	if len(issues) != 3 {
		t.Errorf("Expected 3 issues, got %d: %v", len(issues), issues)
	}
}
