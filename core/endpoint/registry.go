package endpoint

import "github.com/micky-code/school-management-system-SMS--sub000/core"

// Logical resources.
const (
	Students      = "students"
	Teachers      = "teachers"
	Departments   = "departments"
	Programs      = "programs"
	Majors        = "majors"
	Subjects      = "subjects"
	Batches       = "batches"
	AcademicYears = "academic-years"
	Attendance    = "attendance"
	Grades        = "grades"
	Exams         = "exams"
	Payments      = "payments"
	Parents       = "parents"
	Users         = "users"
	Auth          = "auth"
	Dashboard     = "dashboard"
)

// Entities lists the CRUD resources.
var Entities = []string{
	Students, Teachers, Departments, Programs, Majors, Subjects, Batches,
	AcademicYears, Attendance, Grades, Exams, Payments, Parents, Users,
}

// Extra actions.
const (
	ByProgram    = "byProgram"
	ByBatch      = "byBatch"
	ByDepartment = "byDepartment"
	ByStudent    = "byStudent"
	ByExam       = "byExam"
	ByDate       = "byDate"
	Upcoming     = "upcoming"

	Login          = "login"
	Register       = "register"
	UpdatePassword = "updatePassword"
	Me             = "profile"

	Stats          = "stats"
	RecentActivity = "recentActivity"
	UpcomingExams  = "upcomingExams"
)

// DefaultRegistry returns the built-in profiles: the Express backend and the FastAPI backend.
func DefaultRegistry() Registry {
	return Registry{
		core.ProfileExpress: expressProfile(),
		core.ProfileFastAPI: fastAPIProfile(),
	}
}

func crud(base string, trailing bool) Actions {
	coll := base
	if trailing {
		coll += "/"
	}
	return Actions{
		List:   Path(coll),
		Get:    ByID(base, ""),
		Create: Path(coll),
		Update: ByID(base, ""),
		Delete: ByID(base, ""),
	}
}

func with(a Actions, extra Actions) Actions {
	for k, v := range extra {
		a[k] = v
	}
	return a
}

// expressProfile nests sub-resources as /{resource}/{sub}/{id}.
func expressProfile() Profile {
	p := Profile{
		Students: with(crud("/students", false), Actions{
			ByProgram:    ByID("/students/program", ""),
			ByBatch:      ByID("/students/batch", ""),
			ByDepartment: ByID("/students/department", ""),
		}),
		Teachers: with(crud("/teachers", false), Actions{
			ByDepartment: ByID("/teachers/department", ""),
		}),
		Departments: crud("/departments", false),
		Programs: with(crud("/programs", false), Actions{
			ByDepartment: ByID("/programs/department", ""),
		}),
		Majors: with(crud("/majors", false), Actions{
			ByProgram: ByID("/majors/program", ""),
		}),
		Subjects: with(crud("/subjects", false), Actions{
			ByProgram: ByID("/subjects/program", ""),
		}),
		Batches:       crud("/batches", false),
		AcademicYears: crud("/academic-years", false),
		Attendance: with(crud("/attendance", false), Actions{
			ByStudent: ByID("/attendance/student", ""),
			ByDate:    ByID("/attendance/date", ""),
		}),
		Grades: with(crud("/grades", false), Actions{
			ByStudent: ByID("/grades/student", ""),
			ByExam:    ByID("/grades/exam", ""),
		}),
		Exams: with(crud("/exams", false), Actions{
			Upcoming: Path("/exams/upcoming"),
		}),
		Payments: with(crud("/payments", false), Actions{
			ByStudent: ByID("/payments/student", ""),
		}),
		Parents: crud("/parents", false),
		Users:   crud("/users", false),
		Auth: {
			Login:          Path("/auth/login"),
			Register:       Path("/auth/register"),
			UpdatePassword: Path("/auth/update-password"),
			Me:             Path("/auth/profile"),
		},
		Dashboard: {
			Stats:          Path("/dashboard/stats"),
			RecentActivity: Path("/dashboard/recent-activity"),
			UpcomingExams:  Path("/dashboard/upcoming-exams"),
		},
	}
	return p
}

// fastAPIProfile uses trailing slashes on collections and nests sub-resources under their parent
// as /{parent}/{id}/{resource}.
func fastAPIProfile() Profile {
	return Profile{
		Students: with(crud("/students", true), Actions{
			ByProgram:    ByID("/programs", "/students"),
			ByBatch:      ByID("/batches", "/students"),
			ByDepartment: ByID("/departments", "/students"),
		}),
		Teachers: with(crud("/teachers", true), Actions{
			ByDepartment: ByID("/departments", "/teachers"),
		}),
		Departments: crud("/departments", true),
		Programs: with(crud("/programs", true), Actions{
			ByDepartment: ByID("/departments", "/programs"),
		}),
		Majors: with(crud("/majors", true), Actions{
			ByProgram: ByID("/programs", "/majors"),
		}),
		Subjects: with(crud("/subjects", true), Actions{
			ByProgram: ByID("/programs", "/subjects"),
		}),
		Batches:       crud("/batches", true),
		AcademicYears: crud("/academic_years", true),
		Attendance: with(crud("/attendance", true), Actions{
			ByStudent: ByID("/students", "/attendance"),
			ByDate:    ByID("/attendance/date", ""),
		}),
		Grades: with(crud("/grades", true), Actions{
			ByStudent: ByID("/students", "/grades"),
			ByExam:    ByID("/exams", "/grades"),
		}),
		Exams: with(crud("/exams", true), Actions{
			Upcoming: Path("/exams/upcoming/"),
		}),
		Payments: with(crud("/payments", true), Actions{
			ByStudent: ByID("/students", "/payments"),
		}),
		Parents: crud("/parents", true),
		Users:   crud("/users", true),
		Auth: {
			Login:          Path("/auth/login"),
			Register:       Path("/auth/register"),
			UpdatePassword: Path("/auth/update-password"),
			Me:             Path("/auth/me"),
		},
		Dashboard: {
			Stats:          Path("/dashboard/stats"),
			RecentActivity: Path("/dashboard/recent-activity"),
			UpcomingExams:  Path("/dashboard/upcoming-exams"),
		},
	}
}
