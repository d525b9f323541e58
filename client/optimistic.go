package client

import (
	"context"

	"go.uber.org/zap"
)

// Optimistic is one local mutation mirrored by one server write.
//
// Run applies the mutation, sends the write, and then either confirms it or
// reverts it. After a failed write Reconcile re-reads server state, since the
// write may have landed even when the response was lost. The write's error is
// always returned to the caller. Reconcile still runs when ctx was cancelled
// mid-write; the client timeout bounds it.
type Optimistic struct {
	// Apply mutates local state and returns a function that undoes it.
	Apply func() (revert func())

	Send func(ctx context.Context) error

	// Confirm runs after a successful Send, usually to adopt server state.
	Confirm func(ctx context.Context) error

	Reconcile func(ctx context.Context) error

	Logger *zap.Logger
}

func (o Optimistic) Run(ctx context.Context) error {
	revert := func() {}
	if o.Apply != nil {
		if r := o.Apply(); r != nil {
			revert = r
		}
	}

	if err := o.Send(ctx); err != nil {
		revert()
		if o.Reconcile != nil {
			if rerr := o.Reconcile(context.WithoutCancel(ctx)); rerr != nil && o.Logger != nil {
				o.Logger.Warn("reconcile after failed write", zap.NamedError("write_error", err), zap.Error(rerr))
			}
		}
		return err
	}

	if o.Confirm != nil {
		return o.Confirm(ctx)
	}
	return nil
}
