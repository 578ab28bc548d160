package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tobenna/quizforge/internal/model"
)

// CreateSchool stores an institutional account.
func (s *Store) CreateSchool(sc model.School) (int64, error) {
	levels, err := json.Marshal(sc.EducationLevels)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO schools (name, email, password_hash, country, education_levels, gemini_api_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.Name, sc.Email, sc.PasswordHash, sc.Country, string(levels), sc.GeminiAPIKey, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSchool returns a school by ID.
func (s *Store) GetSchool(id int64) (model.School, error) {
	var sc model.School
	var levels string
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, country, education_levels, gemini_api_key, created_at
		 FROM schools WHERE id = ?`, id,
	).Scan(&sc.ID, &sc.Name, &sc.Email, &sc.PasswordHash, &sc.Country, &levels, &sc.GeminiAPIKey, &sc.CreatedAt)
	if err != nil {
		return sc, err
	}
	err = json.Unmarshal([]byte(levels), &sc.EducationLevels)
	return sc, err
}

// GetSchoolByEmail returns a school by email, or nil when none exists.
func (s *Store) GetSchoolByEmail(email string) (*model.School, error) {
	var sc model.School
	var levels string
	err := s.db.QueryRow(
		`SELECT id, name, email, password_hash, country, education_levels, gemini_api_key, created_at
		 FROM schools WHERE email = ?`, email,
	).Scan(&sc.ID, &sc.Name, &sc.Email, &sc.PasswordHash, &sc.Country, &levels, &sc.GeminiAPIKey, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(levels), &sc.EducationLevels); err != nil {
		return nil, err
	}
	return &sc, nil
}

// CreateClassroom adds a classroom to a school.
func (s *Store) CreateClassroom(c model.Classroom) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO classrooms (school_id, name, grade_level, created_at) VALUES (?, ?, ?, ?)`,
		c.SchoolID, c.Name, c.GradeLevel, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetClassroom returns a classroom by ID.
func (s *Store) GetClassroom(id int64) (model.Classroom, error) {
	var c model.Classroom
	err := s.db.QueryRow(
		`SELECT id, school_id, name, grade_level, created_at FROM classrooms WHERE id = ?`, id,
	).Scan(&c.ID, &c.SchoolID, &c.Name, &c.GradeLevel, &c.CreatedAt)
	return c, err
}

// ListClassrooms returns a school's classrooms, newest first.
func (s *Store) ListClassrooms(schoolID int64) ([]model.Classroom, error) {
	rows, err := s.db.Query(
		`SELECT id, school_id, name, grade_level, created_at FROM classrooms
		 WHERE school_id = ? ORDER BY id DESC`, schoolID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var classrooms []model.Classroom
	for rows.Next() {
		var c model.Classroom
		if err := rows.Scan(&c.ID, &c.SchoolID, &c.Name, &c.GradeLevel, &c.CreatedAt); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

// DeleteClassroom removes a classroom and its students.
func (s *Store) DeleteClassroom(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM students WHERE classroom_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM classrooms WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateStudent stores a student with their generated login code.
func (s *Store) CreateStudent(st model.Student) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO students (school_id, classroom_id, name, email, code, password_hash, gemini_api_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.SchoolID, st.ClassroomID, st.Name, st.Email, st.Code, st.PasswordHash, st.GeminiAPIKey, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(id int64) (model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(
		`SELECT id, school_id, classroom_id, name, email, code, password_hash, gemini_api_key, created_at
		 FROM students WHERE id = ?`, id,
	).Scan(&st.ID, &st.SchoolID, &st.ClassroomID, &st.Name, &st.Email, &st.Code, &st.PasswordHash, &st.GeminiAPIKey, &st.CreatedAt)
	return st, err
}

// GetStudentByCode returns a student by login code, or nil when the
// code is unknown.
func (s *Store) GetStudentByCode(code string) (*model.Student, error) {
	var st model.Student
	err := s.db.QueryRow(
		`SELECT id, school_id, classroom_id, name, email, code, password_hash, gemini_api_key, created_at
		 FROM students WHERE code = ?`, code,
	).Scan(&st.ID, &st.SchoolID, &st.ClassroomID, &st.Name, &st.Email, &st.Code, &st.PasswordHash, &st.GeminiAPIKey, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &st, err
}

// ListStudents returns the students in a classroom.
func (s *Store) ListStudents(classroomID int64) ([]model.Student, error) {
	rows, err := s.db.Query(
		`SELECT id, school_id, classroom_id, name, email, code, password_hash, gemini_api_key, created_at
		 FROM students WHERE classroom_id = ? ORDER BY name`, classroomID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.SchoolID, &st.ClassroomID, &st.Name, &st.Email, &st.Code, &st.PasswordHash, &st.GeminiAPIKey, &st.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// UpdateStudentKey replaces a student's stored provider API key.
func (s *Store) UpdateStudentKey(id int64, geminiKey string) error {
	_, err := s.db.Exec(`UPDATE students SET gemini_api_key = ? WHERE id = ?`, geminiKey, id)
	return err
}

// UpdateSchoolKey replaces a school's stored provider API key.
func (s *Store) UpdateSchoolKey(id int64, geminiKey string) error {
	_, err := s.db.Exec(`UPDATE schools SET gemini_api_key = ? WHERE id = ?`, geminiKey, id)
	return err
}

// SchoolCounts is the dashboard summary for a school.
type SchoolCounts struct {
	Classrooms int
	Students   int
	Quizzes    int
}

// CountForSchool returns classroom, student, and quiz totals.
func (s *Store) CountForSchool(schoolID int64) (SchoolCounts, error) {
	var c SchoolCounts
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM classrooms WHERE school_id = ?`, schoolID,
	).Scan(&c.Classrooms); err != nil {
		return c, err
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM students WHERE school_id = ?`, schoolID,
	).Scan(&c.Students); err != nil {
		return c, err
	}
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM quizzes WHERE school_id = ?`, schoolID,
	).Scan(&c.Quizzes)
	return c, err
}
