package mocks

import (
	"github.com/detect-field/trackpoint/pkg/gps"
	"github.com/stretchr/testify/mock"
)

// MockGPSProvider is a mock implementation of the gps.Provider interface
type MockGPSProvider struct {
	mock.Mock
}

func (m *MockGPSProvider) CurrentFix() (gps.Reading, error) {
	args := m.Called()
	return args.Get(0).(gps.Reading), args.Error(1)
}

func (m *MockGPSProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
