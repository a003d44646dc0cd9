package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"veriform/internal/port"
)

// MockValidationClient is a mock implementation of port.ValidationClient.
type MockValidationClient struct {
	mock.Mock
}

func (m *MockValidationClient) Send(ctx context.Context, req *port.ValidationRequest) (*port.ValidationAck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ValidationAck), args.Error(1)
}

func (m *MockValidationClient) Name() string {
	return "mock"
}
