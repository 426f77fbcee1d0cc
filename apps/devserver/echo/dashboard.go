package echoapi

import (
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/dashboard"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/fallback"
)

const dashboardListSize = 5

func (s *server) registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	routes := map[string]reader{
		endpoint.Stats:          s.stats,
		endpoint.RecentActivity: s.recentActivity,
		endpoint.UpcomingExams:  s.upcomingExams,
	}
	public := g.Group("/public")
	for action, r := range routes {
		path := s.resolver.MustResolve(endpoint.Dashboard, action)
		g.GET(path, respond(r, false), jwt)
		public.GET(path, respond(r, true))
	}
}

func (s *server) stats(echo.Context) (page, error) {
	rec := core.Record{
		dashboard.FieldDepartments:   float64(s.DB.Table(endpoint.Departments).Count()),
		dashboard.FieldPrograms:      float64(s.DB.Table(endpoint.Programs).Count()),
		dashboard.FieldAcademicYears: float64(s.DB.Table(endpoint.AcademicYears).Count()),
		dashboard.FieldStudents:      float64(s.DB.Table(endpoint.Students).Count()),
		dashboard.FieldTeachers:      float64(s.DB.Table(endpoint.Teachers).Count()),
	}
	return page{rows: []core.Record{rec}, total: 1, single: true}, nil
}

func (s *server) recentActivity(echo.Context) (page, error) {
	rows := s.DB.Table(fallback.RecentActivity).Query(inmemdb.Filter{})
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].String("timestamp") > rows[j].String("timestamp")
	})
	if len(rows) > dashboardListSize {
		rows = rows[:dashboardListSize]
	}
	return page{rows: rows, total: len(rows)}, nil
}

func (s *server) upcomingExams(echo.Context) (page, error) {
	rows := upcomingExams(s.DB.Table(endpoint.Exams))
	if len(rows) > dashboardListSize {
		rows = rows[:dashboardListSize]
	}
	return page{rows: rows, total: len(rows)}, nil
}

// upcomingExams lists the scheduled exams of t by exam date.
func upcomingExams(t *inmemdb.Table) []core.Record {
	rows := t.Query(inmemdb.Filter{Match: map[string]string{"status": "scheduled"}})
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].String("exam_date", "date") < rows[j].String("exam_date", "date")
	})
	return rows
}
