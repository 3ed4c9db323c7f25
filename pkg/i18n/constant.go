package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_EXIST             = "error.exist"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_SESSION_NOT_FOUND        = "error.session.notfound"
	ERROR_CONTEXT_ITEM_NOT_FOUND   = "error.context.item.notfound"
	ERROR_CONTEXT_ALREADY_SELECTED = "error.context.already_selected"
	ERROR_CONTEXT_LIMIT_EXCEEDED   = "error.context.limit_exceeded"
	ERROR_BUDGET_EXCEEDED          = "error.budget.exceeded"
	ERROR_MESSAGE_TOO_LONG         = "error.message.too_long"
	ERROR_MESSAGE_MISSING_INTENT   = "error.message.missing_intent"
	ERROR_PERSISTENCE              = "error.persistence"
	ERROR_PROVIDER_UNAVAILABLE     = "error.provider.unavailable"
	ERROR_STREAM_CANCELED          = "error.stream.canceled"
)
