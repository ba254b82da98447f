package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sunrised/internal/alarm"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, e alarm.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRecorder) Recent(ctx context.Context, limit int) ([]alarm.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]alarm.Event), args.Error(1)
}
