package process

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/insightpilot/insightpilot/app/core"
)

const DEFAULT_CLEANUP_CRON = "0 3 * * *"

type Process struct {
	cron *cron.Cron
	core *core.Core
}

func NewProcess(core *core.Core) *Process {
	return &Process{
		cron: cron.New(),
		core: core,
	}
}

func (p *Process) Start() {
	spec := p.core.Cfg().Cleanup.Cron
	if spec == "" {
		spec = DEFAULT_CLEANUP_CRON
	}

	task := NewSessionCleanupTask(p.core)
	if _, err := p.cron.AddFunc(spec, task.Run); err != nil {
		slog.Error("failed to schedule session cleanup", slog.String("spec", spec), slog.String("error", err.Error()))
	} else {
		slog.Info("session cleanup scheduled", slog.String("spec", spec))
	}

	p.cron.Start()
}

func (p *Process) Stop() {
	p.cron.Stop()
}
