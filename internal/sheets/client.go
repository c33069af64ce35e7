// Package sheets writes thoughts to Google Sheets: every thought to the master
// log and project ideas to their own spreadsheet.
package sheets

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Tab is one named sheet with its initial rows.
type Tab struct {
	Name string
	Rows [][]any
}

// API is the subset of the spreadsheet service the writers use.
type API interface {
	AppendRow(ctx context.Context, spreadsheetID, rng string, row []any) error
	CreateSpreadsheet(ctx context.Context, title string, tabs []Tab) (url string, err error)
}

// GoogleClient implements API with a service account.
type GoogleClient struct {
	svc *gsheets.Service
}

func NewGoogleClient(ctx context.Context, credentialsJSON []byte) (*GoogleClient, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, eris.Wrap(err, "parse service account credentials")
	}

	svc, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, eris.Wrap(err, "create sheets service")
	}

	return &GoogleClient{svc: svc}, nil
}

func (c *GoogleClient) AppendRow(ctx context.Context, spreadsheetID, rng string, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]any{row}}
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrapf(err, "append to %s", rng)
	}
	return nil
}

func (c *GoogleClient) CreateSpreadsheet(ctx context.Context, title string, tabs []Tab) (string, error) {
	doc := &gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
	}
	for _, t := range tabs {
		doc.Sheets = append(doc.Sheets, &gsheets.Sheet{
			Properties: &gsheets.SheetProperties{Title: t.Name},
		})
	}

	created, err := c.svc.Spreadsheets.Create(doc).Context(ctx).Do()
	if err != nil {
		return "", eris.Wrap(err, "create spreadsheet")
	}

	var data []*gsheets.ValueRange
	for _, t := range tabs {
		if len(t.Rows) == 0 {
			continue
		}
		data = append(data, &gsheets.ValueRange{
			Range:  quoteSheet(t.Name) + "!A1",
			Values: t.Rows,
		})
	}
	if len(data) > 0 {
		req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}
		if _, err := c.svc.Spreadsheets.Values.BatchUpdate(created.SpreadsheetId, req).Context(ctx).Do(); err != nil {
			return "", eris.Wrapf(err, "fill spreadsheet %s", created.SpreadsheetId)
		}
	}

	return created.SpreadsheetUrl, nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
