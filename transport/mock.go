package transport

import (
	"github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock of [Transport] for protocol-layer tests.
type MockTransport struct {
	mock.Mock
}

var _ Transport = (*MockTransport)(nil)

func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func (m *MockTransport) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockTransport) ReadLine() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTransport) ReadUpTo(n int) ([]byte, error) {
	args := m.Called(n)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}
