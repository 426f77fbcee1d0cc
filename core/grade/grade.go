// Package grade adds grade-letter computation on top of the grades resource.
package grade

import (
	"context"
	"math"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
)

// LetterField holds the letter of a grade record.
const LetterField = "grade_letter"

var (
	marksKeys = []string{"marks_obtained", "marksObtained", "marks", "score"}
	maxKeys   = []string{"max_marks", "maxMarks", "total_marks", "totalMarks"}
)

// thresholds are minimum percentages, highest first.
var thresholds = []struct {
	min    float64
	letter string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
	{33, "D"},
}

// Percentage returns marks as a percentage of maxMarks. ok is false when either is zero or NaN.
func Percentage(marks, maxMarks float64) (pct float64, ok bool) {
	if marks == 0 || maxMarks == 0 || math.IsNaN(marks) || math.IsNaN(maxMarks) {
		return 0, false
	}
	return marks * 100 / maxMarks, true
}

// CalculateLetter maps marks out of maxMarks onto a letter. Either input being zero yields "",
// so a 0/100 score has no letter.
func CalculateLetter(marks, maxMarks float64) string {
	pct, ok := Percentage(marks, maxMarks)
	if !ok {
		return ""
	}
	for _, t := range thresholds {
		if pct >= t.min {
			return t.letter
		}
	}
	return "F"
}

// LetterOf computes the letter of a grade record from its marks fields.
func LetterOf(rec core.Record) string {
	marks, _ := rec.Float(marksKeys...)
	maxMarks, _ := rec.Float(maxKeys...)
	return CalculateLetter(marks, maxMarks)
}

// WithLetter returns a copy of rec with grade_letter filled in, unless one was given
// or the marks are missing.
func WithLetter(rec core.Record) core.Record {
	out := rec.Clone()
	if out.String(LetterField) != "" {
		return out
	}
	if l := LetterOf(out); l != "" {
		out[LetterField] = l
	}
	return out
}

type Service struct {
	*resource.Service
}

func NewService(svc *resource.Service) *Service {
	return &Service{Service: svc}
}

func annotate(res paged.Result, err error) (paged.Result, error) {
	if err != nil {
		return res, err
	}
	for i, row := range res.Rows {
		res.Rows[i] = WithLetter(row)
	}
	return res, nil
}

func (svc *Service) GetAll(ctx context.Context, q resource.Query) (paged.Result, error) {
	return annotate(svc.Service.GetAll(ctx, q))
}

func (svc *Service) GetByID(ctx context.Context, id string) (paged.Result, error) {
	return annotate(svc.Service.GetByID(ctx, id))
}

func (svc *Service) ByStudent(ctx context.Context, studentID string, q resource.Query) (paged.Result, error) {
	return annotate(svc.Related(ctx, endpoint.ByStudent, q, studentID))
}

func (svc *Service) ByExam(ctx context.Context, examID string, q resource.Query) (paged.Result, error) {
	return annotate(svc.Related(ctx, endpoint.ByExam, q, examID))
}

func (svc *Service) Create(ctx context.Context, rec core.Record) (paged.Result, error) {
	return svc.Service.Create(ctx, WithLetter(rec))
}

func (svc *Service) Update(ctx context.Context, id string, rec core.Record) (paged.Result, error) {
	return svc.Service.Update(ctx, id, WithLetter(rec))
}
