package forms

import (
	"context"
	"fmt"

	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Superseded identifies a merged-away session whose displayed message
// must be retired (edited to the closed banner) by the transport layer.
type Superseded struct {
	Data      models.FormData
	MessageID int64
}

// Reconcile merges other live sessions denoting the same logical
// context into this form's session: dependent rows move onto the
// canonical session and the duplicates are deleted, one transaction per
// merged entity so a reader never observes dependents attached to
// neither side. Re-running on an already-merged set finds no matches
// and performs no writes.
func (f *Form) Reconcile(ctx context.Context) ([]Superseded, error) {
	dups, err := f.st.DuplicateDatas(ctx, f.data, f.user.ID)
	if err != nil {
		return nil, err
	}
	var retired []Superseded
	for _, dup := range dups {
		msgID := dup.MessageID()
		err := f.st.WithTx(ctx, func(tx store.Store) error {
			if err := allocateTo(ctx, tx, dup, f.data); err != nil {
				return err
			}
			return tx.DeleteData(ctx, dup)
		})
		if err != nil {
			return retired, fmt.Errorf("reconcile data %d: %w", dup.DataID(), err)
		}
		if msgID != nil {
			retired = append(retired, Superseded{Data: dup, MessageID: *msgID})
		}
	}
	return retired, nil
}

// allocateTo transfers the dependent rows of from onto to. Summary
// sessions own no dependents.
func allocateTo(ctx context.Context, tx store.Store, from, to models.FormData) error {
	switch from.Kind() {
	case models.KindAppointment:
		return tx.ReassignAppointments(ctx, from.DataID(), to.DataID())
	case models.KindReminder:
		return tx.ReassignReminders(ctx, from.DataID(), to.DataID())
	case models.KindSummary:
		return nil
	}
	return fmt.Errorf("allocate: unsupported kind %q", from.Kind())
}
