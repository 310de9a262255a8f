package google

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsClient issues single value reads and appends. A new Sheets service is
// built for every call from the caller's credential; nothing is cached.
type SheetsClient struct {
	applicationName string
	options         []option.ClientOption
}

type AppendResult struct {
	TableRange     string
	UpdatedRange   string
	UpdatedRows    int64
	UpdatedColumns int64
	UpdatedCells   int64
}

func NewSheetsClient(applicationName string, opts ...option.ClientOption) *SheetsClient {
	return &SheetsClient{
		applicationName: applicationName,
		options:         opts,
	}
}

func (s *SheetsClient) service(ctx context.Context, auth Authorizer) (*sheets.Service, error) {
	client, err := auth.Client(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	opts = append(opts, s.options...)

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	srv.UserAgent = s.applicationName

	return srv, nil
}

// ReadCell returns the value in the first row and column of rng.
func (s *SheetsClient) ReadCell(ctx context.Context, spreadsheetID string, rng Range, auth Authorizer) (string, error) {
	srv, err := s.service(ctx, auth)
	if err != nil {
		return "", newRequestError("read", rng, err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, rng.String()).Context(ctx).Do()
	if err != nil {
		return "", newRequestError("read", rng, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", newRequestError("read", rng, ErrEmptyResult)
	}

	slog.Debug("read values", "spreadsheet", spreadsheetID, "range", resp.Range, "rows", len(resp.Values))

	return cellString(resp.Values[0][0]), nil
}

// AppendRows appends grid after the last row of the table found in rng.
// Values are stored as given, without number or date parsing.
func (s *SheetsClient) AppendRows(ctx context.Context, spreadsheetID string, rng Range, grid Grid, auth Authorizer) (*AppendResult, error) {
	if err := grid.validate(); err != nil {
		return nil, newRequestError("append", rng, err)
	}

	srv, err := s.service(ctx, auth)
	if err != nil {
		return nil, newRequestError("append", rng, err)
	}

	valueRange := &sheets.ValueRange{
		Values: grid.values(),
	}

	resp, err := srv.Spreadsheets.Values.Append(spreadsheetID, rng.String(), valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, newRequestError("append", rng, err)
	}

	result := &AppendResult{TableRange: resp.TableRange}
	if resp.Updates != nil {
		result.UpdatedRange = resp.Updates.UpdatedRange
		result.UpdatedRows = resp.Updates.UpdatedRows
		result.UpdatedColumns = resp.Updates.UpdatedColumns
		result.UpdatedCells = resp.Updates.UpdatedCells
	}

	slog.Debug("appended values", "spreadsheet", spreadsheetID, "range", result.UpdatedRange, "cells", result.UpdatedCells)

	return result, nil
}

func cellString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
