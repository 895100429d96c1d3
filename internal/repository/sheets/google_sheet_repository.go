package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
)

// BillHeader is the column layout of the exported bills sheet.
var BillHeader = []interface{}{
	"Bill number", "Business date", "Table", "Items", "Subtotal", "Tax rate", "Tax", "Total", "Payment",
}

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendRows appends rows below the last filled row of sheetRange in one call.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append %d rows into range %s: %w", len(rows), sheetRange, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("range", sheetRange), zap.Int("rows", len(rows)))
	return nil
}

// ReadRange fetches a rectangular data range from the spreadsheet.
func (r *GoogleSheetRepository) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	if sheetRange == "" {
		return nil, fmt.Errorf("sheetRange must not be empty")
	}

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", sheetRange, err)
	}

	return resp.Values, nil
}

// BillExporter mirrors bills into a sheet, one row per bill keyed by number.
type BillExporter struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger
}

// NewBillExporter writes into sheetRange, e.g. "Bills!A:I".
func NewBillExporter(repo Repository, sheetRange string, logger *zap.Logger) *BillExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillExporter{repo: repo, sheetRange: sheetRange, logger: logger}
}

// ExportBills appends the bills whose number is not in the sheet yet and
// returns how many rows were written. The header is written to an empty sheet.
func (e *BillExporter) ExportBills(ctx context.Context, bills []models.Bill) (int, error) {
	existing, err := e.repo.ReadRange(ctx, e.sheetRange)
	if err != nil {
		return 0, err
	}

	exported := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if len(row) > 0 {
			exported[fmt.Sprint(row[0])] = struct{}{}
		}
	}

	var rows [][]interface{}
	if len(existing) == 0 {
		rows = append(rows, BillHeader)
	}
	written := 0
	for _, bill := range bills {
		if _, ok := exported[bill.Number]; ok {
			continue
		}
		rows = append(rows, BillRow(bill))
		written++
	}
	if written == 0 {
		return 0, nil
	}

	if err := e.repo.AppendRows(ctx, e.sheetRange, rows); err != nil {
		return 0, err
	}
	e.logger.Info("bills exported to sheet", zap.Int("bills", written))
	return written, nil
}

// BillRow renders a bill in BillHeader column order.
func BillRow(bill models.Bill) []interface{} {
	items := 0
	for _, line := range bill.Lines {
		items += line.Quantity
	}
	return []interface{}{
		bill.Number,
		bill.BusinessDate,
		bill.TableNumber,
		items,
		fmt.Sprintf("%.2f", bill.Subtotal),
		fmt.Sprintf("%.2f", bill.TaxRate),
		fmt.Sprintf("%.2f", bill.TaxAmount),
		fmt.Sprintf("%.2f", bill.TotalAmount),
		paymentCell(bill),
	}
}

func paymentCell(bill models.Bill) string {
	if bill.PaymentStatus == models.PaymentPaid && bill.PaidAt != nil {
		return "paid " + bill.PaidAt.Format(time.RFC3339)
	}
	return string(bill.PaymentStatus)
}
