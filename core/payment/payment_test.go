package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

func TestReceiptNumber(t *testing.T) {
	now := time.Date(2024, 11, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  core.Record
		want string
	}{
		{name: "date and id", rec: core.Record{"id": 42.0, "payment_date": "2024-03-05"}, want: "REC-20240305-000042"},
		{name: "timestamp", rec: core.Record{"id": "7", "payment_date": "2024-03-05T14:30:00.000Z"}, want: "REC-20240305-000007"},
		{name: "mongo id", rec: core.Record{"_id": 1234567.0, "paymentDate": "2024-01-31 08:00:00"}, want: "REC-20240131-1234567"},
		{name: "no date", rec: core.Record{"id": 3.0}, want: "REC-20241102-000003"},
		{name: "unreadable date", rec: core.Record{"id": 3.0, "payment_date": "yesterday"}, want: "REC-20241102-000003"},
		{name: "not persisted", rec: core.Record{}, want: ReceiptPreview},
		{name: "nil", rec: nil, want: ReceiptPreview},
		{name: "zero id", rec: core.Record{"id": 0.0, "payment_date": "2024-03-05"}, want: ReceiptPreview},
		{name: "zero string id", rec: core.Record{"id": "0"}, want: ReceiptPreview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReceiptNumber(tt.rec, now))
		})
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]core.Record{
		{"amount": 1500.0, "status": "completed"},
		{"amount": "250.50", "status": "Completed"},
		{"amount_paid": 750.0, "status": "pending"},
		{"status": "failed"},
		{"amount": 10.0},
	})
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 2510.5, s.Total, 1e-9)
	assert.Equal(t, map[string]float64{"completed": 1750.5, "pending": 750, "failed": 0, "unknown": 10}, s.ByStatus)
}
