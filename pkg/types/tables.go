package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "insightpilot_"

const (
	TABLE_SESSION        = TableName("session")
	TABLE_MESSAGE        = TableName("message")
	TABLE_CONTEXT_REF    = TableName("context_ref")
	TABLE_USAGE_EVENT    = TableName("usage_event")
	TABLE_ITEM_STATS     = TableName("item_stats")
	TABLE_KNOWLEDGE_ITEM = TableName("knowledge_item")
)
