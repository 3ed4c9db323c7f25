package srv

// Srv bundles the external service drivers the logic layer reaches
// through. Drivers are applied at setup so tests can swap fakes in.
type Srv struct {
	ai  AIDriver
	seq *SeqSrv
}

type ApplyFunc func(*Srv)

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		s.ai = SetupAI(cfg)
	}
}

func ApplyAIDriver(driver AIDriver) ApplyFunc {
	return func(s *Srv) {
		s.ai = driver
	}
}

func ApplySeq(gen SeqGen) ApplyFunc {
	return func(s *Srv) {
		s.seq = SetupSeqSrv(gen)
	}
}

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (s *Srv) AI() AIDriver {
	return s.ai
}

func (s *Srv) Seq() *SeqSrv {
	return s.seq
}
