package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// TaskRunner runs detached best-effort work, like post-stream title
// generation. The submitter holds no reference to the outcome.
type TaskRunner interface {
	Run(name string, fn func(ctx context.Context))
}

// GoRunner executes tasks on detached goroutines. Panics are recovered and
// logged so a bad task cannot take the process down.
type GoRunner struct{}

func (GoRunner) Run(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("task", name).Errorf("Background task panicked: %v", r)
			}
		}()
		fn(context.Background())
	}()
}

// SyncRunner executes tasks inline. Used by tests to await detached work
// deterministically.
type SyncRunner struct{}

func (SyncRunner) Run(name string, fn func(ctx context.Context)) {
	fn(context.Background())
}
