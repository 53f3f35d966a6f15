package moonito

import "github.com/NeuralTrust/VisitorGate/pkg/infra/httpx"

type MoonitoClientOption func(*MoonitoClient)

func WithHTTPClient(client httpx.Client) MoonitoClientOption {
	return func(c *MoonitoClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL overrides the analytics host, e.g. for a staging service.
func WithBaseURL(baseURL string) MoonitoClientOption {
	return func(c *MoonitoClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithCircuitBreaker(circuitBreaker httpx.CircuitBreaker) MoonitoClientOption {
	return func(c *MoonitoClient) {
		if circuitBreaker != nil {
			c.circuitBreaker = circuitBreaker
		}
	}
}
