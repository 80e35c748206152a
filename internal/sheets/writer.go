package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshsymonds/greenstash/internal/common"
	"github.com/joshsymonds/greenstash/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer implements the ReportWriter interface for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(config, srv, logger), nil
}

func newWriter(config Config, srv *sheets.Service, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		config:  config,
		service: srv,
		logger:  logger,
	}
}

// tab is one worksheet of the export.
type tab struct {
	name        string
	values      [][]any
	moneyCols   []int64
	columnCount int64
}

// Write implements the ReportWriter interface.
func (w *Writer) Write(ctx context.Context, report *service.GoalReport) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	w.logger.Info("starting goal export",
		"goals", len(report.Goals),
		"transactions", len(report.Transactions))

	tabs := w.buildTabs(BuildTabData(report, w.config.Location()))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 1
	}

	var (
		spreadsheetID string
		sheetIDs      map[string]int64
	)
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetIDs, err = w.ensureSpreadsheet(ctx)
		return err
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	rows := 0
	for _, t := range tabs {
		err := common.WithRetry(ctx, func() error {
			if err := w.clearTab(ctx, spreadsheetID, t.name); err != nil {
				return err
			}
			return w.writeData(ctx, spreadsheetID, t.name, t.values)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write %s tab: %w", t.name, err)
		}
		rows += len(t.values)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.applyFormatting(ctx, spreadsheetID, sheetIDs, tabs)
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("goal export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", rows)

	return nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// ensureSpreadsheet returns the spreadsheet to write to, creating it or any
// missing tabs as needed, along with the sheet id of every tab.
func (w *Writer) ensureSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx)
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	ids := make(map[string]int64)
	for _, s := range existing.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	var requests []*sheets.Request
	for _, name := range tabNames() {
		if _, ok := ids[name]; ok {
			continue
		}
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		})
	}

	if len(requests) > 0 {
		resp, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to add tabs: %w", err)
		}
		for _, reply := range resp.Replies {
			if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
				ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
			}
		}
		w.logger.Info("added missing tabs", "count", len(requests))
	}

	return w.config.SpreadsheetID, ids, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}
	for _, name := range tabNames() {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: name},
		})
	}

	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	ids := make(map[string]int64)
	for _, s := range created.Sheets {
		if s.Properties != nil {
			ids[s.Properties.Title] = s.Properties.SheetId
		}
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later exports reuse the same spreadsheet.
	w.config.SpreadsheetID = created.SpreadsheetId
	return created.SpreadsheetId, ids, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, name string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, name+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) buildTabs(data *TabData) []tab {
	summary := [][]any{{"Metric", "Value"}}
	for _, row := range data.Summary {
		summary = append(summary, []any{row.Label, row.Value})
	}

	goals := [][]any{{"ID", "Title", "Target", "Saved", "Remaining", "Progress", "Status", "Deadline", "Notes"}}
	for _, g := range data.Goals {
		deadline := ""
		if g.Deadline != nil {
			deadline = g.Deadline.Format("2006-01-02")
		}
		goals = append(goals, []any{
			g.ID,
			g.Title,
			g.Target.InexactFloat64(),
			g.Saved.InexactFloat64(),
			g.Remaining.InexactFloat64(),
			fmt.Sprintf("%.1f%%", g.Progress),
			g.Status,
			deadline,
			g.Notes,
		})
	}

	txns := [][]any{{"Date", "Goal", "Type", "Amount", "Balance", "Notes"}}
	for _, t := range data.Transactions {
		txns = append(txns, []any{
			t.Date.Format("2006-01-02"),
			t.Goal,
			t.Type,
			t.Amount.InexactFloat64(),
			t.Balance.InexactFloat64(),
			t.Notes,
		})
	}

	return []tab{
		{name: SummaryTab, values: summary, columnCount: 2},
		{name: GoalsTab, values: goals, moneyCols: []int64{2, 3, 4}, columnCount: 9},
		{name: TransactionsTab, values: txns, moneyCols: []int64{3, 4}, columnCount: 6},
	}
}

// writeData writes the values to a tab in batches.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, name string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		valueRange := &sheets.ValueRange{
			Values: batch,
		}

		rangeStr := fmt.Sprintf("%s!A%d", name, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()

		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "tab", name, "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds and freezes header rows, formats money columns and
// resizes columns on every tab.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetIDs map[string]int64, tabs []tab) error {
	pattern := fmt.Sprintf(`"%s"#,##0.00`, w.config.Currency)

	var requests []*sheets.Request
	for _, t := range tabs {
		sheetID, ok := sheetIDs[t.name]
		if !ok {
			continue
		}

		requests = append(requests,
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    0,
						EndRowIndex:      1,
						StartColumnIndex: 0,
						EndColumnIndex:   t.columnCount,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat",
				},
			},
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: sheetID,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount: 1,
						},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		)

		for _, col := range t.moneyCols {
			requests = append(requests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    1,
						EndRowIndex:      int64(len(t.values)),
						StartColumnIndex: col,
						EndColumnIndex:   col + 1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							NumberFormat: &sheets.NumberFormat{
								Type:    "CURRENCY",
								Pattern: pattern,
							},
						},
					},
					Fields: "userEnteredFormat.numberFormat",
				},
			})
		}

		requests = append(requests, &sheets.Request{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   t.columnCount,
				},
			},
		})
	}

	if len(requests) == 0 {
		return nil
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func tabNames() []string {
	return []string{SummaryTab, GoalsTab, TransactionsTab}
}
