package echoapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/grade"
	"github.com/micky-code/school-management-system-SMS--sub000/core/payment"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
)

var (
	nameRule   = map[string]interface{}{"name": "required"}
	personRule = map[string]interface{}{"first_name": "required", "last_name": "required", "email": "omitempty,email"}

	// createRules are checked on create. Updates only check the fields they carry.
	createRules = map[string]map[string]interface{}{
		endpoint.Students:      personRule,
		endpoint.Teachers:      personRule,
		endpoint.Parents:       personRule,
		endpoint.Departments:   nameRule,
		endpoint.Programs:      nameRule,
		endpoint.Majors:        nameRule,
		endpoint.Subjects:      nameRule,
		endpoint.Batches:       nameRule,
		endpoint.AcademicYears: nameRule,
		endpoint.Exams:         nameRule,
		endpoint.Attendance:    {"student_id": "required", "date": "required", "status": "required,oneof=present absent late excused"},
		endpoint.Grades:        {"student_id": "required", "exam_id": "required"},
		endpoint.Payments:      {"student_id": "required", "amount": "required"},
		endpoint.Users:         {"username": "required", "email": "required,email"},
	}

	// uniqueFields may not repeat within a table.
	uniqueFields = map[string][]string{
		endpoint.Students: {"email"},
		endpoint.Teachers: {"email"},
		endpoint.Parents:  {"email"},
		endpoint.Users:    {"username", "email"},
	}
)

type (
	// page is what a read handler produced, before it is shaped for its tier.
	page struct {
		rows   []core.Record
		total  int
		single bool
		query  *ListQuery
	}

	reader func(ctx echo.Context) (page, error)

	tableAPI struct {
		*server
		name  string
		table *inmemdb.Table
	}
)

func (s *server) registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	authed := g.Group("", jwt)
	public := g.Group("/public")

	for _, name := range endpoint.Entities {
		api := &tableAPI{server: s, name: name, table: s.DB.Table(name)}
		coll := s.resolver.MustResolve(name, endpoint.List)
		item := s.resolver.MustResolve(name, endpoint.Get, ":id")

		read := func(path string, r reader) {
			authed.GET(path, respond(r, false))
			public.GET(path, respond(r, true))
		}
		read(coll, api.list)
		read(item, api.retrieve)

		for _, action := range s.resolver.Actions(name) {
			switch action {
			case endpoint.List, endpoint.Get, endpoint.Create, endpoint.Update, endpoint.Delete:
				continue
			case endpoint.Upcoming:
				read(s.resolver.MustResolve(name, action), api.upcoming)
				continue
			}
			if key, ok := resource.RelatedKey(action); ok {
				read(s.resolver.MustResolve(name, action, ":id"), api.related(key))
			}
		}

		authed.POST(coll, api.create)
		authed.PUT(item, api.update)
		authed.DELETE(item, api.destroy, s.adminMiddleware())
	}
}

// respond renders a page in the canonical shape, or in the {data,total} shape on the public tier.
func respond(r reader, public bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		p, err := r(ctx)
		if err != nil {
			return err
		}
		if p.single {
			if len(p.rows) == 0 {
				return errHttpNotFound
			}
			if public {
				return ctx.JSON(http.StatusOK, echo.Map{"data": p.rows[0]})
			}
			return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": p.rows[0]})
		}
		if public {
			return ctx.JSON(http.StatusOK, echo.Map{"data": p.rows, "total": p.total})
		}
		body := echo.Map{"success": true, "data": p.rows, "total": p.total}
		if q := p.query; q != nil {
			body["pagination"] = echo.Map{
				"page":  q.Page,
				"limit": q.Limit,
				"total": p.total,
				"pages": (p.total + q.Limit - 1) / q.Limit,
			}
		}
		return ctx.JSON(http.StatusOK, body)
	}
}

func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func (api *tableAPI) query(ctx echo.Context, pin map[string]string) page {
	q := new(ListQuery)
	q.Bind(ctx)
	for k, v := range pin {
		if q.Filter.Match == nil {
			q.Filter.Match = make(map[string]string)
		}
		q.Filter.Match[k] = v
	}
	rows := api.table.Query(q.Filter)
	return page{rows: q.Slice(rows), total: len(rows), query: q}
}

func (api *tableAPI) list(ctx echo.Context) (page, error) {
	return api.query(ctx, nil), nil
}

func (api *tableAPI) related(key string) reader {
	return func(ctx echo.Context) (page, error) {
		return api.query(ctx, map[string]string{key: ctx.Param("id")}), nil
	}
}

// upcoming lists scheduled exams by date.
func (api *tableAPI) upcoming(ctx echo.Context) (page, error) {
	rows := upcomingExams(api.table)
	return page{rows: rows, total: len(rows)}, nil
}

func (api *tableAPI) retrieve(ctx echo.Context) (page, error) {
	id, err := paramID(ctx)
	if err != nil {
		return page{}, err
	}
	rec, err := api.table.Get(id)
	if err != nil {
		return page{}, err
	}
	return page{rows: []core.Record{rec}, total: 1, single: true}, nil
}

func (api *tableAPI) create(ctx echo.Context) error {
	rec, err := api.bindRecord(ctx)
	if err != nil {
		return err
	}
	delete(rec, "id")
	if err := api.validate(rec, createRules[api.name], 0); err != nil {
		return err
	}
	rec = api.prepare(rec)
	now := time.Now().UTC().Format(time.RFC3339)
	rec["created_at"], rec["updated_at"] = now, now

	created := api.table.Create(rec)
	if api.name == endpoint.Payments && created.String(payment.ReceiptField) == "" {
		created, err = api.table.Update(
			mustID(created), core.Record{payment.ReceiptField: payment.ReceiptNumber(created, time.Now())},
		)
		if err != nil {
			return errors.Wrap(err, "numbering receipt")
		}
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "created", "data": created})
}

func (api *tableAPI) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rec, err := api.bindRecord(ctx)
	if err != nil {
		return err
	}
	rules := make(map[string]interface{})
	for field, rule := range createRules[api.name] {
		if _, sent := rec[field]; sent {
			rules[field] = rule
		}
	}
	if err := api.validate(rec, rules, id); err != nil {
		return err
	}
	rec = api.prepare(rec)
	rec["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	updated, err := api.table.Update(id, rec)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "updated", "data": updated})
}

func (api *tableAPI) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err := api.table.Delete(id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "deleted"})
}

// validate checks rec against rules and the unique fields of the table, ignoring row `self`.
func (api *tableAPI) validate(rec core.Record, rules map[string]interface{}, self int) error {
	var flds []core.FieldError
	for field, errs := range core.Validate.ValidateMap(rec, rules) {
		flds = append(flds, core.FieldError{Field: field, Error: fieldMessage(field, errs)})
	}
	for _, field := range uniqueFields[api.name] {
		val := core.CleanString(rec.String(field), true /* lower */)
		if val == "" {
			continue
		}
		for _, row := range api.table.Query(inmemdb.Filter{}) {
			if mustID(row) != self && strings.EqualFold(row.String(field), val) {
				msg := capitalize(strings.ReplaceAll(field, "_", " ")) + " already exists"
				flds = append(flds, core.FieldError{Field: field, Error: msg})
				break
			}
		}
	}
	if len(flds) == 0 {
		return nil
	}
	sortFields(flds)
	msg := "invalid input"
	if len(flds) == 1 {
		msg = flds[0].Error
	}
	return &core.ValidationError{Err: errors.New(msg), Message: msg, Fields: flds}
}

// prepare derives computed fields.
func (api *tableAPI) prepare(rec core.Record) core.Record {
	if api.name == endpoint.Grades {
		return grade.WithLetter(rec)
	}
	return rec
}

func mustID(rec core.Record) int {
	id, _ := rec.Int("id")
	return id
}
