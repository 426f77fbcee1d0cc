// Package payment adds receipt numbering and summaries on top of the payments resource.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
)

const (
	// ReceiptPreview is the receipt number of a payment that was not persisted yet.
	ReceiptPreview = "RECEIPT-PREVIEW"
	// ReceiptField holds the receipt number of a stored payment.
	ReceiptField = "receipt_number"
)

var (
	dateKeys    = []string{"payment_date", "paymentDate", "date"}
	amountKeys  = []string{"amount", "amount_paid", "amountPaid"}
	dateLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// ReceiptNumber returns `REC-<yyyyMMdd>-<id padded to 6 digits>`. The date is the payment date,
// or now when it is missing or unreadable. Records without an id, or with id 0, are not persisted yet.
func ReceiptNumber(rec core.Record, now time.Time) string {
	id := rec.IDString()
	if id == "" || id == "0" {
		return ReceiptPreview
	}
	date := now
	if t, ok := paymentDate(rec); ok {
		date = t
	}
	return "REC-" + date.Format("20060102") + "-" + core.PadLeft(id, 6, '0')
}

func paymentDate(rec core.Record) (time.Time, bool) {
	s := core.CleanString(rec.String(dateKeys...))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Summary of a list of payments.
type Summary struct {
	Count    int                `json:"count"`
	Total    float64            `json:"total"`
	ByStatus map[string]float64 `json:"by_status"`
}

// Summarize totals the amounts of rows, overall and per status. Rows without a readable
// amount are counted but add nothing.
func Summarize(rows []core.Record) Summary {
	s := Summary{ByStatus: make(map[string]float64)}
	for _, r := range rows {
		s.Count++
		amount, _ := r.Float(amountKeys...)
		s.Total += amount
		status := strings.ToLower(core.CleanString(r.String("status", "payment_status")))
		if status == "" {
			status = "unknown"
		}
		s.ByStatus[status] += amount
	}
	return s
}

type Service struct {
	*resource.Service
	now func() time.Time
}

func NewService(svc *resource.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{Service: svc, now: now}
}

func (svc *Service) ReceiptNumber(rec core.Record) string {
	return ReceiptNumber(rec, svc.now())
}

func (svc *Service) ByStudent(ctx context.Context, studentID string, q resource.Query) (paged.Result, error) {
	return svc.Related(ctx, endpoint.ByStudent, q, studentID)
}

// Receipt fetches a payment and returns its receipt number along with the record.
func (svc *Service) Receipt(ctx context.Context, id string) (string, core.Record, error) {
	res, err := svc.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	rec, _ := res.First()
	return svc.ReceiptNumber(rec), rec, nil
}
