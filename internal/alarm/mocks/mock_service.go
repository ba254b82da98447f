package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sunrised/internal/alarm"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context) (alarm.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(alarm.Settings), args.Error(1)
}

func (m *MockService) Set(ctx context.Context, hour, minute int, source string) (alarm.Settings, error) {
	args := m.Called(ctx, hour, minute, source)
	return args.Get(0).(alarm.Settings), args.Error(1)
}

func (m *MockService) Disable(ctx context.Context, source string) (alarm.Settings, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(alarm.Settings), args.Error(1)
}

func (m *MockService) Status(ctx context.Context) (alarm.StatusReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(alarm.StatusReport), args.Error(1)
}
