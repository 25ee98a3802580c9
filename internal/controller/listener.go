package controller

import (
	"context"

	"rig.dev/pkg/rig/internal/domain"
	m "rig.dev/pkg/rig/internal/model"
)

// uiListener bridges coordinator progress events to a UI.
type uiListener struct {
	ctx context.Context
	ui  UI
}

// NewListener adapts a UI to the coordinator's Listener interface.
func NewListener(ctx context.Context, ui UI) domain.Listener {
	return &uiListener{ctx: ctx, ui: ui}
}

func (l *uiListener) TestStarted(inv *m.TestInvocation) {
	l.ui.DisplayStartingTest(l.ctx, inv)
}

func (l *uiListener) TestFinished(outcome m.Outcome) {
	l.ui.DisplayCompletedTest(l.ctx, outcome)
}
