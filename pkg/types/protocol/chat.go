package protocol

import "fmt"

// Redis key helpers. One writer at a time per session, both for assistant
// generation and context mutation.

func GenChatRequestKey(sessionID string) string {
	return fmt.Sprintf("/insightpilot/chat/request/%s", sessionID)
}

func GenContextWriterKey(sessionID string) string {
	return fmt.Sprintf("/insightpilot/context/writer/%s", sessionID)
}

func GenContextCacheKey(sessionID string, version int64) string {
	return fmt.Sprintf("/insightpilot/context/state/%s/v%d", sessionID, version)
}

func GenContextVersionKey(sessionID string) string {
	return fmt.Sprintf("/insightpilot/context/version/%s", sessionID)
}

func GenSessionSeqKey(sessionID string) string {
	return fmt.Sprintf("/insightpilot/chat/seq/%s", sessionID)
}
