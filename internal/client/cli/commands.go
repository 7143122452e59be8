package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/goccy/go-json"
)

func (a *App) Status(ctx context.Context) error {
	st := a.engine.NetworkSnapshot()
	n, err := a.engine.PendingCount(ctx)
	if err != nil {
		return err
	}

	checked := "never"
	if !st.LastChecked.IsZero() {
		checked = st.LastChecked.Local().Format(time.DateTime)
	}
	fmt.Fprintf(a.out, "Network: %s (checked %s)\n", modeName(st.Online), checked)
	fmt.Fprintf(a.out, "Pending changes: %d\n", n)
	return nil
}

func (a *App) SetMode(ctx context.Context, online bool) error {
	a.engine.SetOnline(ctx, online)
	return nil
}

// Write parses body for add and update, or takes it as the record id for
// delete. An empty body for add or update is read from the terminal.
func (a *App) Write(ctx context.Context, op models.Operation, entityType, body string) error {
	var payload models.Payload

	if op == models.OperationDelete {
		payload = models.Payload{models.IDField: body}
	} else {
		if body == "" {
			text, err := GetMultiline(a.reader, "Enter the record as JSON", a.out)
			if err != nil {
				return err
			}
			body = text
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return fmt.Errorf("record must be a JSON object: %w", err)
		}
	}

	res, err := a.engine.Write(ctx, entityType, op, payload)
	if err != nil {
		return err
	}

	if res.Queued {
		fmt.Fprintf(a.out, "Queued %s of %s %s, it will be sent when back online\n", op, entityType, res.ID)
		return nil
	}
	fmt.Fprintf(a.out, "Saved %s %s\n", entityType, res.ID)
	return nil
}

func (a *App) List(ctx context.Context, entityType string) error {
	res, err := a.engine.Read(ctx, entityType)
	if errors.Is(err, common.ErrLocalDataNotAvailable) {
		fmt.Fprintln(a.out, "Offline and nothing cached yet")
		return nil
	}
	if err != nil {
		return err
	}

	if res.FromCache {
		fmt.Fprintln(a.out, "(from local cache)")
	}
	if len(res.Records) == 0 {
		fmt.Fprintf(a.out, "No %s records\n", entityType)
		return nil
	}
	for _, rec := range res.Records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, string(b))
	}
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	changes, err := a.engine.PendingChanges(ctx)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(a.out, "No pending changes")
		return nil
	}
	for _, c := range changes {
		fmt.Fprintf(a.out, "%s  %-6s %s %s  %s\n",
			c.CreatedAt.Local().Format(time.DateTime), c.Operation, c.EntityType, models.PrimaryKey(c.Payload), c.ID)
	}
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	res, err := a.engine.ForceSync(ctx)
	if errors.Is(err, common.ErrOffline) {
		fmt.Fprintf(a.out, "Offline, %d change(s) waiting\n", res.PendingChangesCount)
		return nil
	}
	if err != nil {
		return err
	}
	printResult(a, res)
	return nil
}

func (a *App) Last(ctx context.Context) error {
	res, ok := a.engine.LastSyncResult()
	if !ok {
		fmt.Fprintln(a.out, "No sync has run yet")
		return nil
	}
	printResult(a, res)
	return nil
}

func printResult(a *App, res models.SyncResult) {
	if res.SuccessCount+res.FailedCount+res.PendingChangesCount == 0 {
		fmt.Fprintln(a.out, "Nothing to sync")
		return
	}
	fmt.Fprintf(a.out, "Sync at %s: %d succeeded, %d failed, %d still pending\n",
		res.Timestamp.Local().Format(time.DateTime), res.SuccessCount, res.FailedCount, res.PendingChangesCount)
	for _, e := range res.Errors {
		fmt.Fprintln(a.out, "  -", e)
	}
}
