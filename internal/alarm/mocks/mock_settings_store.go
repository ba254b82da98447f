package mocks

import (
	"github.com/stretchr/testify/mock"

	"sunrised/internal/alarm"
)

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Load() (alarm.Settings, error) {
	args := m.Called()
	return args.Get(0).(alarm.Settings), args.Error(1)
}

func (m *MockSettingsStore) Save(s alarm.Settings) error {
	args := m.Called(s)
	return args.Error(0)
}
