package fallback

import (
	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
)

// Numbers are float64, as they would be decoded from JSON.
func builtin() map[string][]core.Record {
	return map[string][]core.Record{
		endpoint.Departments: {
			{"id": 1.0, "name": "Computer Science", "code": "CS", "head_of_department": "Dr. Alan Mensah", "status": "active"},
			{"id": 2.0, "name": "Business Administration", "code": "BA", "head_of_department": "Dr. Grace Owusu", "status": "active"},
			{"id": 3.0, "name": "Electrical Engineering", "code": "EE", "head_of_department": "Prof. Kofi Asante", "status": "active"},
		},
		endpoint.Programs: {
			{"id": 1.0, "name": "BSc Computer Science", "code": "BSC-CS", "department_id": 1.0, "duration_years": 4.0},
			{"id": 2.0, "name": "BSc Information Technology", "code": "BSC-IT", "department_id": 1.0, "duration_years": 4.0},
			{"id": 3.0, "name": "BBA Accounting", "code": "BBA-ACC", "department_id": 2.0, "duration_years": 4.0},
			{"id": 4.0, "name": "BEng Electrical", "code": "BENG-EE", "department_id": 3.0, "duration_years": 4.0},
		},
		endpoint.Majors: {
			{"id": 1.0, "name": "Software Engineering", "code": "SE", "program_id": 1.0},
			{"id": 2.0, "name": "Networking", "code": "NET", "program_id": 2.0},
		},
		endpoint.Subjects: {
			{"id": 1.0, "name": "Data Structures", "code": "CS201", "credits": 3.0, "program_id": 1.0},
			{"id": 2.0, "name": "Database Systems", "code": "CS305", "credits": 3.0, "program_id": 1.0},
			{"id": 3.0, "name": "Financial Accounting", "code": "ACC101", "credits": 4.0, "program_id": 3.0},
		},
		endpoint.Batches: {
			{"id": 1.0, "batch_name": "2023 Intake", "program_id": 1.0, "start_year": 2023.0, "end_year": 2027.0},
			{"id": 2.0, "batch_name": "2024 Intake", "program_id": 1.0, "start_year": 2024.0, "end_year": 2028.0},
		},
		endpoint.AcademicYears: {
			{"id": 1.0, "name": "2023/2024", "start_date": "2023-09-01", "end_date": "2024-06-30", "is_current": false},
			{"id": 2.0, "name": "2024/2025", "start_date": "2024-09-01", "end_date": "2025-06-30", "is_current": true},
		},
		endpoint.Students: {
			{"id": 1.0, "student_id": "STU-0001", "first_name": "Ama", "last_name": "Boateng", "email": "ama.boateng@example.edu", "program_id": 1.0, "batch_id": 1.0, "status": "active"},
			{"id": 2.0, "student_id": "STU-0002", "first_name": "Kwame", "last_name": "Nkrumah", "email": "kwame.nkrumah@example.edu", "program_id": 1.0, "batch_id": 2.0, "status": "active"},
			{"id": 3.0, "student_id": "STU-0003", "first_name": "Efua", "last_name": "Sutherland", "email": "efua.sutherland@example.edu", "program_id": 3.0, "batch_id": 1.0, "status": "inactive"},
		},
		endpoint.Teachers: {
			{"id": 1.0, "teacher_id": "TCH-001", "first_name": "Yaw", "last_name": "Darko", "email": "yaw.darko@example.edu", "department_id": 1.0, "qualification": "PhD"},
			{"id": 2.0, "teacher_id": "TCH-002", "first_name": "Abena", "last_name": "Osei", "email": "abena.osei@example.edu", "department_id": 2.0, "qualification": "MSc"},
		},
		endpoint.Attendance: {
			{"id": 1.0, "student_id": 1.0, "subject_id": 1.0, "date": "2024-10-07", "status": "present"},
			{"id": 2.0, "student_id": 2.0, "subject_id": 1.0, "date": "2024-10-07", "status": "absent"},
		},
		endpoint.Grades: {
			{"id": 1.0, "student_id": 1.0, "exam_id": 1.0, "subject_id": 1.0, "marks_obtained": 86.0, "max_marks": 100.0, "grade_letter": "A"},
			{"id": 2.0, "student_id": 2.0, "exam_id": 1.0, "subject_id": 1.0, "marks_obtained": 64.0, "max_marks": 100.0, "grade_letter": "B"},
		},
		endpoint.Exams: {
			{"id": 1.0, "name": "Data Structures Midterm", "subject_id": 1.0, "exam_date": "2024-10-21", "max_marks": 100.0, "status": "scheduled"},
			{"id": 2.0, "name": "Database Systems Final", "subject_id": 2.0, "exam_date": "2024-12-09", "max_marks": 100.0, "status": "scheduled"},
		},
		endpoint.Payments: {
			{"id": 1.0, "student_id": 1.0, "amount": 1500.0, "payment_date": "2024-09-05", "payment_method": "bank_transfer", "status": "completed"},
			{"id": 2.0, "student_id": 2.0, "amount": 750.0, "payment_date": "2024-09-12", "payment_method": "mobile_money", "status": "pending"},
		},
		endpoint.Parents: {
			{"id": 1.0, "first_name": "Kofi", "last_name": "Boateng", "phone": "+233 20 000 0001", "student_id": 1.0, "relationship": "father"},
		},
		endpoint.Users: {
			{"id": 1.0, "username": "admin", "email": "admin@example.edu", "role": "admin", "is_active": true},
			{"id": 2.0, "username": "registrar", "email": "registrar@example.edu", "role": "staff", "is_active": true},
		},
		RecentActivity: {
			{"id": 1.0, "type": "enrollment", "description": "New student enrolled in BSc Computer Science", "timestamp": "2024-10-07T09:15:00Z"},
			{"id": 2.0, "type": "payment", "description": "Tuition payment received", "timestamp": "2024-10-07T08:40:00Z"},
			{"id": 3.0, "type": "grade", "description": "Midterm grades published for CS201", "timestamp": "2024-10-06T16:05:00Z"},
		},
		UpcomingExams: {
			{"id": 1.0, "name": "Data Structures Midterm", "subject": "Data Structures", "exam_date": "2024-10-21"},
			{"id": 2.0, "name": "Database Systems Final", "subject": "Database Systems", "exam_date": "2024-12-09"},
		},
	}
}
