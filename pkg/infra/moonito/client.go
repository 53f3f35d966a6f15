package moonito

import (
	"context"

	"github.com/NeuralTrust/VisitorGate/pkg/domain/visitor"
)

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=moonito_client_mock.go --case=underscore
type Client interface {
	Analyze(ctx context.Context, signals visitor.Signals, credentials Credentials) (*visitor.Verdict, error)
}

type Credentials struct {
	PublicKey string
	SecretKey string
}
