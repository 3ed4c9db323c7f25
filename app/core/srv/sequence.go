package srv

import (
	"context"

	"github.com/insightpilot/insightpilot/pkg/utils"
)

// SeqGen hands out the next message sequence within one session. The
// redis-backed implementation lives in core; a store-backed fallback
// covers cold keys.
type SeqGen interface {
	GetMessageSequence(ctx context.Context, sessionID string) (int64, error)
}

type SeqSrv struct {
	gen SeqGen
}

func SetupSeqSrv(gen SeqGen) *SeqSrv {
	return &SeqSrv{
		gen: gen,
	}
}

func (s *SeqSrv) GenMessageID() string {
	return utils.GenUniqIDStr()
}

func (s *SeqSrv) GetSessionSeqID(ctx context.Context, sessionID string) (int64, error) {
	return s.gen.GetMessageSequence(ctx, sessionID)
}
