package extract

import (
	"context"

	"github.com/redresshq/redress/internal/domain"
)

// MockClient is a configurable extraction client for testing.
// Set the response fields to control what ExtractFacts returns; queue
// several responses to script a multi-turn conversation.
type MockClient struct {
	ExtractResponse *domain.FactDelta
	ExtractError    error

	// Queue takes precedence over ExtractResponse: each call pops one
	// delta until the queue is empty.
	Queue []*domain.FactDelta

	// Call tracking for assertions
	ExtractCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) ExtractFacts(ctx context.Context, message string) (*domain.FactDelta, error) {
	c.ExtractCalls = append(c.ExtractCalls, message)
	if c.ExtractError != nil {
		return nil, c.ExtractError
	}
	if len(c.Queue) > 0 {
		next := c.Queue[0]
		c.Queue = c.Queue[1:]
		return next, nil
	}
	return c.ExtractResponse, nil
}

// Reset clears all recorded calls and queued responses.
func (c *MockClient) Reset() {
	c.ExtractResponse = nil
	c.ExtractError = nil
	c.Queue = nil
	c.ExtractCalls = nil
}
