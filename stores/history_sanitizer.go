package stores

import (
	"fmt"

	"github.com/Desarso/parsa/conversation"
)

// SanitizeHistory repairs an archived transcript before it is restored into memory.
//
// A model message is archived as soon as it is appended, with Streaming set, and updated
// when it finishes. If the process stops in between, the archive keeps a message that
// nothing will ever finish. Such messages are closed with notice, the same text a failed
// stream gets. Messages with an unknown role or a repeated id are dropped.
func SanitizeHistory(msgs []conversation.Message, notice string) []conversation.Message {
	if len(msgs) == 0 {
		return msgs
	}

	seen := make(map[string]bool, len(msgs))
	result := make([]conversation.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case conversation.RoleUser, conversation.RoleModel:
		default:
			continue
		}
		if msg.ID == "" || seen[msg.ID] {
			continue
		}
		seen[msg.ID] = true

		if msg.Streaming {
			msg.Text = notice
			msg.Streaming = false
		}
		result = append(result, msg)
	}
	return result
}

// DetectCorruptedHistory lists the problems SanitizeHistory would repair. An empty list
// means the transcript is clean.
func DetectCorruptedHistory(msgs []conversation.Message) []string {
	issues := []string{}
	seen := make(map[string]bool, len(msgs))

	for i, msg := range msgs {
		switch msg.Role {
		case conversation.RoleUser, conversation.RoleModel:
		default:
			issues = append(issues, fmt.Sprintf("message %d has unknown role %q", i, msg.Role))
		}
		if msg.ID == "" {
			issues = append(issues, fmt.Sprintf("message %d has no id", i))
		} else if seen[msg.ID] {
			issues = append(issues, fmt.Sprintf("message %d repeats id %s", i, msg.ID))
		}
		seen[msg.ID] = true
		if msg.Streaming {
			issues = append(issues, fmt.Sprintf("message %d was interrupted while streaming", i))
		}
	}
	return issues
}
