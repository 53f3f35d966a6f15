package mocks

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/moonito"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

// NewClient registers AssertExpectations on test cleanup.
func NewClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *Client {
	m := &Client{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Client) Analyze(ctx context.Context, signals visitor.Signals, credentials moonito.Credentials) (*visitor.Verdict, error) {
	args := m.Called(ctx, signals, credentials)
	verdict, ok := args.Get(0).(*visitor.Verdict)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *visitor.Verdict, got %T", args.Get(0))
	}
	return verdict, args.Error(1)
}
