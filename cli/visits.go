// ABOUTME: Visit CLI commands
// ABOUTME: Commands for listing, showing, exporting, deleting and summarizing saved visits
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/onsite/drive"
	"github.com/harperreed/onsite/export"
	"github.com/harperreed/onsite/models"
	"github.com/harperreed/onsite/viz"
)

// ListCommand prints finished recaps, or drafts with --drafts.
func (a *App) ListCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(out)
	query := fs.String("query", "", "Filter by customer, account or summary text")
	drafts := fs.Bool("drafts", false, "List visits that have no summary yet")
	limit := fs.Int("limit", 20, "Maximum number of visits to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		visits []models.Visit
		err    error
	)
	if *drafts {
		visits, err = a.Workspace.Drafts()
	} else {
		visits, err = a.Workspace.Repository(*query)
	}
	if err != nil {
		return fmt.Errorf("failed to list visits: %w", err)
	}

	if len(visits) == 0 {
		_, _ = fmt.Fprintln(out, "No visits found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCUSTOMER\tACCOUNT\tHEALTH\tANSWERED\tUPDATED\tDRIVE")
	_, _ = fmt.Fprintln(w, "--\t--------\t-------\t------\t--------\t-------\t-----")

	for i, v := range visits {
		if i >= *limit {
			break
		}
		uploaded := ""
		if v.DriveFileID != "" {
			uploaded = "☁"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			v.ID.String()[:8], orUntitled(v.CustomerName), v.AccountID, v.HealthScore.Label(),
			v.AnsweredCount(), len(v.Prompts), v.UpdatedAt.Local().Format("2006-01-02 15:04"), uploaded)
	}

	return w.Flush()
}

// ShowCommand prints a visit's recap as plain text.
func (a *App) ShowCommand(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: onsite show <visit-id>")
	}
	v, err := a.findVisit(args[0])
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s (%s)\n", orUntitled(v.CustomerName), v.HealthScore.Label())
	if v.AccountID != "" || v.ARR != "" {
		_, _ = fmt.Fprintf(out, "Account: %s  ARR: %s\n", v.AccountID, v.ARR)
	}
	if v.DriveFileID != "" {
		_, _ = fmt.Fprintf(out, "Drive:   %s\n", drive.FileURL(v.DriveFileID))
	}
	_, _ = fmt.Fprintln(out)

	if v.GeneratedSummary == "" {
		_, _ = fmt.Fprintf(out, "No summary yet. %d of %d questions answered.\n", v.AnsweredCount(), len(v.Prompts))
		return nil
	}
	_, _ = fmt.Fprintln(out, export.CleanMarkdown(v.GeneratedSummary))
	return nil
}

// ExportCommand writes a visit's recap to PDF and optionally uploads it to Drive.
func (a *App) ExportCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(out)
	output := fs.String("output", "", "PDF path (default: Downloads folder)")
	upload := fs.Bool("upload", false, "Upload the PDF to Google Drive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: onsite export <visit-id> [--output file.pdf] [--upload]")
	}

	v, err := a.findVisit(fs.Arg(0))
	if err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = filepath.Join(ExportDir(), export.FileName(v, time.Now()))
	}
	if err := export.WriteFile(v, path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Saved %s\n", path)

	if !*upload {
		return nil
	}

	if _, err := a.Workspace.Open(v.ID); err != nil {
		return err
	}
	defer a.Workspace.Close()

	id, err := a.Workspace.ExportAndUpload(context.Background())
	if err != nil {
		if errors.Is(err, models.ErrNotAuthorized) {
			return fmt.Errorf("google Drive is not connected, run `onsite auth` first")
		}
		return err
	}
	_, _ = fmt.Fprintf(out, "Uploaded %s\n", drive.FileURL(id))
	return nil
}

// DeleteCommand removes a visit and its recordings.
func (a *App) DeleteCommand(args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: onsite delete <visit-id>")
	}
	v, err := a.findVisit(args[0])
	if err != nil {
		return err
	}
	if err := a.Workspace.Delete(v.ID); err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Deleted %s\n", orUntitled(v.CustomerName))
	return nil
}

// findVisit accepts a full ID or a unique prefix as printed by list.
func (a *App) findVisit(ref string) (*models.Visit, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return a.Store.Get(id)
	}

	visits, err := a.Store.LoadAll()
	if err != nil {
		return nil, err
	}
	var match *models.Visit
	for i := range visits {
		if len(ref) >= 4 && len(ref) <= 36 && visits[i].ID.String()[:len(ref)] == ref {
			if match != nil {
				return nil, fmt.Errorf("visit id %q is ambiguous", ref)
			}
			match = &visits[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("visit %s: %w", ref, models.ErrNotFound)
	}
	return match, nil
}

func orUntitled(name string) string {
	if name == "" {
		return "Untitled visit"
	}
	return name
}

// StatsCommand prints the visit dashboard.
func (a *App) StatsCommand(out io.Writer) error {
	visits, err := a.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load visits: %w", err)
	}
	_, _ = fmt.Fprint(out, viz.RenderDashboard(viz.GenerateDashboardStats(visits, time.Now())))
	return nil
}
