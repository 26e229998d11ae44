package messaging

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RowAppender appends one row to a spreadsheet range.
type RowAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, writeRange string, row []interface{}) error
}

// SheetsAPI implements RowAppender with the Google Sheets API.
type SheetsAPI struct {
	svc *sheets.Service
}

// NewSheetsAPI authenticates with a service account credentials file.
func NewSheetsAPI(ctx context.Context, credentialsFile string) (*SheetsAPI, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsAPI{svc: svc}, nil
}

func (s *SheetsAPI) AppendRow(ctx context.Context, spreadsheetID, writeRange string, row []interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(spreadsheetID, writeRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Sheets mirrors every message as a spreadsheet row.
type Sheets struct {
	appender      RowAppender
	spreadsheetID string
	writeRange    string
	now           func() time.Time
}

// NewSheets creates a mirror writing to spreadsheetID. writeRange defaults
// to "Requests!A:H".
func NewSheets(appender RowAppender, spreadsheetID, writeRange string) *Sheets {
	if writeRange == "" {
		writeRange = "Requests!A:H"
	}
	return &Sheets{
		appender:      appender,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
		now:           time.Now,
	}
}

func (s *Sheets) Send(ctx context.Context, msg Message) error {
	if s.appender == nil || s.spreadsheetID == "" {
		return fmt.Errorf("sheets: %w", ErrNotConfigured)
	}
	if err := s.appender.AppendRow(ctx, s.spreadsheetID, s.writeRange, sheetRow(msg, s.now())); err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}

func sheetRow(msg Message, at time.Time) []interface{} {
	return []interface{}{
		at.Format("2006-01-02 15:04:05"),
		string(msg.Kind),
		msg.Get("name"),
		msg.Get("email"),
		msg.Get("datetime"),
		msg.Get("callType"),
		msg.Get("subject"),
		msg.Get("message"),
	}
}
