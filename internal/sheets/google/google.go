package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"carteira/internal/billing"
	ports "carteira/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	billsSheet    string
}

// Ensure interface conformance
var _ ports.BillExporter = (*Client)(nil)

// Options configures the Sheets client. A user OAuth client takes
// precedence; otherwise service account credentials come from
// CredentialsJSON, then CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

func (o Options) usesOAuth() bool {
	return strings.TrimSpace(o.OAuthClientJSON) != "" || strings.TrimSpace(o.OAuthClientFile) != ""
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = "Faturas"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, billsSheet: sheetName}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	if opts.usesOAuth() {
		ts, err := userTokenSource(ctx, opts)
		if err != nil {
			return nil, err
		}
		service, err := gsheet.NewService(ctx, goption.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		slog.InfoContext(ctx, "Google Sheets service created", "auth", "oauth_user")
		return service, nil
	}

	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "auth", "service_account", "credentials_size", len(credentialsJSON))
	return service, nil
}

// ExportBills writes one row per card bill to the bills sheet, keyed by
// month, user and card.
func (c *Client) ExportBills(ctx context.Context, userID string, bills billing.PreviousBills) error {
	rng := fmt.Sprintf("%s!A1:G", c.billsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read bills sheet: %w", err)
	}

	plan := planExport(resp.Values, userID, bills)

	if len(plan.Updates) > 0 {
		req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED"}
		for _, u := range plan.Updates {
			req.Data = append(req.Data, &gsheet.ValueRange{
				Range:  rowRange(c.billsSheet, u.Row),
				Values: [][]interface{}{u.Values},
			})
		}
		if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("update bill rows: %w", err)
		}
	}

	if len(plan.Appends) > 0 {
		vr := &gsheet.ValueRange{Values: plan.Appends}
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append bill rows: %w", err)
		}
	}

	slog.InfoContext(ctx, "Exported bills",
		"month", bills.Reference.Key(),
		"user_id", userID,
		"updated", len(plan.Updates),
		"appended", len(plan.Appends))
	return nil
}
