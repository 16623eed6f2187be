package gitx

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedClient is a fake Client for tests. Responses are keyed by the
// space-joined argument list; unmatched commands succeed with empty output
// unless FailUnmatched is set.
type ScriptedClient struct {
	mu sync.Mutex

	// Responses maps a joined argument string to its canned stdout.
	Responses map[string]string

	// Errors maps a joined argument string to an error to return.
	Errors map[string]error

	// FailUnmatched makes any command without a canned response fail.
	FailUnmatched bool

	// Calls records every invocation in order.
	Calls []string
}

// NewScriptedClient returns an empty scripted client.
func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{
		Responses: map[string]string{},
		Errors:    map[string]error{},
	}
}

// Respond registers canned stdout for the given argument list.
func (s *ScriptedClient) Respond(out string, args ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Responses[strings.Join(args, " ")] = out
}

// Fail registers an error for the given argument list.
func (s *ScriptedClient) Fail(err error, args ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors[strings.Join(args, " ")] = err
}

// Output implements Client.
func (s *ScriptedClient) Output(_ context.Context, _ string, args ...string) (string, error) {
	key := strings.Join(args, " ")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, key)

	if err, ok := s.Errors[key]; ok {
		return "", err
	}
	if out, ok := s.Responses[key]; ok {
		return out, nil
	}
	if s.FailUnmatched {
		return "", fmt.Errorf("unexpected git call: git %s", key)
	}
	return "", nil
}

// CalledWith reports whether any recorded call has the given prefix.
func (s *ScriptedClient) CalledWith(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, call := range s.Calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}
