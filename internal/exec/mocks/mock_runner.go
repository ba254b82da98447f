package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sunrised/internal/exec"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, name string, args []string, opts exec.RunOpts) (exec.CmdResult, error) {
	a := m.Called(ctx, name, args, opts)
	return a.Get(0).(exec.CmdResult), a.Error(1)
}
