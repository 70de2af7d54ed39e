// Package index keeps the persisted snapshot index in exact correspondence
// with a desired collection of link records.
package index

import (
	"context"

	"github.com/seckatie/linkindex/internal/core/db"
	"github.com/seckatie/linkindex/internal/logging"
)

type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile makes the store hold exactly one row per distinct URL in desired,
// with fields equal to the desired record, in a single transaction.
//
// An empty desired collection empties the store. Records with an empty URL are
// rejected with ErrInvalidRecord before the transaction starts. Store failures
// roll the transaction back and are returned unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, desired []Link) (Summary, error) {
	if err := Validate(desired); err != nil {
		return Summary{}, err
	}

	log := logging.FromContext(ctx)
	var plan Plan
	err := r.store.InTx(ctx, func(tx db.SnapshotTx) error {
		rows, err := tx.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		plan = BuildPlan(rows, desired)
		return plan.apply(ctx, tx)
	})
	if err != nil {
		log.Error().Err(err).Int("links", len(desired)).Msg("Reconciliation failed")
		return Summary{}, err
	}

	summary := plan.Summary()
	log.Info().
		Int("links", len(desired)).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("replaced", summary.Replaced).
		Int("deleted", summary.Deleted).
		Int("inserted", summary.Inserted).
		Msg("Reconciled snapshot index")
	return summary, nil
}

// Plan computes what Reconcile would do without writing anything.
func (r *Reconciler) Plan(ctx context.Context, desired []Link) (Plan, error) {
	if err := Validate(desired); err != nil {
		return Plan{}, err
	}

	var plan Plan
	err := r.store.InTx(ctx, func(tx db.SnapshotTx) error {
		rows, err := tx.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		plan = BuildPlan(rows, desired)
		return nil
	})
	return plan, err
}
