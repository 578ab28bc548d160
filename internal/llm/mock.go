package llm

import (
	"context"
	"errors"
	"sync"
)

// MockResponse is a canned completion for the Mock provider.
type MockResponse struct {
	Text string
	Err  error
}

// Mock is a deterministic Provider for tests. It returns canned
// responses in FIFO order and records every prompt it receives.
type Mock struct {
	mu        sync.Mutex
	responses []MockResponse
	Prompts   []string
}

// NewMock creates a Mock with the given canned responses.
func NewMock(responses ...MockResponse) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if len(m.responses) == 0 {
		return "", errors.New("mock: no responses queued")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

func (m *Mock) Model() string { return "mock" }

// Calls returns how many prompts the mock has served.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
