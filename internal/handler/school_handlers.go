package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/education"
	"github.com/tobenna/quizforge/internal/grading"
	"github.com/tobenna/quizforge/internal/i18n"
	"github.com/tobenna/quizforge/internal/model"
)

func (h *Handler) handleSchoolRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Country  string `json:"country"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || !education.Known(req.Country) {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	existing, err := h.store.GetSchoolByEmail(req.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	if existing != nil {
		respondError(w, r, http.StatusConflict, "ErrInvalidCredentials")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	id, err := h.store.CreateSchool(model.School{
		Name:            req.Name,
		Email:           req.Email,
		PasswordHash:    hash,
		Country:         req.Country,
		EducationLevels: education.Levels(req.Country),
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	h.issueToken(w, r, model.Principal{Kind: model.KindSchool, ID: id}, req.Name, req.Email)
}

func (h *Handler) handleSchoolLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	sc, err := h.store.GetSchoolByEmail(req.Email)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	if sc == nil || !auth.CheckPassword(sc.PasswordHash, req.Password) {
		respondError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}

	h.issueToken(w, r, model.Principal{Kind: model.KindSchool, ID: sc.ID}, sc.Name, sc.Email)
}

func (h *Handler) handleSchoolDashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountForSchool(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"classrooms": counts.Classrooms,
		"students":   counts.Students,
		"quizzes":    counts.Quizzes,
	})
}

func (h *Handler) handleSchoolLevels(w http.ResponseWriter, r *http.Request) {
	sc, err := h.store.GetSchool(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"country": sc.Country,
		"levels":  sc.EducationLevels,
	})
}

func (h *Handler) handleCreateClassroom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		GradeLevel string `json:"grade_level"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}
	id, err := h.store.CreateClassroom(model.Classroom{
		SchoolID:   principal(r).ID,
		Name:       req.Name,
		GradeLevel: req.GradeLevel,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"classroom_id": id})
}

func (h *Handler) handleListClassrooms(w http.ResponseWriter, r *http.Request) {
	classrooms, err := h.store.ListClassrooms(principal(r).ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"classrooms": classrooms})
}

// classroomForSchool loads a classroom and verifies it belongs to the
// calling school.
func (h *Handler) classroomForSchool(w http.ResponseWriter, r *http.Request) (model.Classroom, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "classroomID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return model.Classroom{}, false
	}
	c, err := h.store.GetClassroom(id)
	if err != nil || c.SchoolID != principal(r).ID {
		respondError(w, r, http.StatusNotFound, "ErrClassroomNotFound")
		return model.Classroom{}, false
	}
	return c, true
}

func (h *Handler) handleDeleteClassroom(w http.ResponseWriter, r *http.Request) {
	c, ok := h.classroomForSchool(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteClassroom(c.ID); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "ClassroomDeleted")
}

type studentView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code"`
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	c, ok := h.classroomForSchool(w, r)
	if !ok {
		return
	}
	students, err := h.store.ListStudents(c.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	views := make([]studentView, len(students))
	for i, st := range students {
		views[i] = studentView{ID: st.ID, Name: st.Name, Email: st.Email, Code: st.Code}
	}
	respondJSON(w, http.StatusOK, map[string]any{"students": views})
}

// handleImportStudents bulk-creates students and returns the generated
// credentials. The plaintext password appears only in this response;
// the store keeps the hash.
func (h *Handler) handleImportStudents(w http.ResponseWriter, r *http.Request) {
	c, ok := h.classroomForSchool(w, r)
	if !ok {
		return
	}
	var req struct {
		Students []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"students"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Students) == 0 {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	sc, err := h.store.GetSchool(c.SchoolID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	type credential struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	var created []credential
	for _, in := range req.Students {
		if in.Name == "" {
			continue
		}
		password := auth.GenerateStudentPassword()
		hash, err := auth.HashPassword(password)
		if err != nil {
			respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
			return
		}

		var id int64
		var code string
		// Retry on the rare code collision.
		for range 3 {
			code = auth.GenerateStudentCode(sc.Name)
			id, err = h.store.CreateStudent(model.Student{
				SchoolID:     c.SchoolID,
				ClassroomID:  c.ID,
				Name:         in.Name,
				Email:        in.Email,
				Code:         code,
				PasswordHash: hash,
			})
			if err == nil {
				break
			}
		}
		if err != nil {
			slog.Error("import student", "name", in.Name, "error", err)
			respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
			return
		}
		created = append(created, credential{ID: id, Name: in.Name, Code: code, Password: password})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  i18n.Tp(r.Context(), "StudentsImported", len(created)),
		"students": created,
	})
}

// handleCreateSchoolQuiz stores the assignment definition only. No
// questions are generated here; each student's first start generates
// their own set, so two students can receive distinct questions on
// the same assignment.
func (h *Handler) handleCreateSchoolQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		quizRequest
		ClassroomID int64  `json:"classroom_id"`
		TimeLimit   int    `json:"time_limit"`
		DocumentID  *int64 `json:"document_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.normalize()
	if req.Topic == "" {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return
	}

	p := principal(r)
	c, err := h.store.GetClassroom(req.ClassroomID)
	if err != nil || c.SchoolID != p.ID {
		respondError(w, r, http.StatusNotFound, "ErrClassroomNotFound")
		return
	}
	if req.DocumentID != nil {
		doc, err := h.store.GetDocument(*req.DocumentID)
		if err != nil || doc.OwnerKind != p.Kind || doc.OwnerID != p.ID {
			respondError(w, r, http.StatusNotFound, "ErrDocumentNotFound")
			return
		}
	}

	sc, err := h.store.GetSchool(p.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	quizID, err := h.store.CreateQuiz(model.Quiz{
		OwnerKind:    p.Kind,
		OwnerID:      p.ID,
		SchoolID:     &p.ID,
		ClassroomID:  &req.ClassroomID,
		Topic:        req.Topic,
		Format:       req.Format,
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
		TimeLimit:    req.TimeLimit,
		DocumentID:   req.DocumentID,
		Notes:        req.Custom,
		CreatedBy:    sc.Name,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"quiz_id":       quizID,
		"topic":         req.Topic,
		"num_questions": req.NumQuestions,
	})
}

func (h *Handler) handleListSchoolQuizzes(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	var quizzes []model.Quiz
	var err error
	if raw := r.URL.Query().Get("classroom_id"); raw != "" {
		classroomID, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
			return
		}
		quizzes, err = h.store.ListQuizzesByClassroom(classroomID)
	} else {
		quizzes, err = h.store.ListQuizzesByOwner(p.Kind, p.ID)
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// schoolQuiz loads a quiz and verifies the calling school owns it.
func (h *Handler) schoolQuiz(w http.ResponseWriter, r *http.Request) (model.Quiz, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "quizID"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "ErrInvalidRequest")
		return model.Quiz{}, false
	}
	q, err := h.store.GetQuiz(id)
	if err != nil || q.SchoolID == nil || *q.SchoolID != principal(r).ID {
		respondError(w, r, http.StatusNotFound, "ErrQuizNotFound")
		return model.Quiz{}, false
	}
	return q, true
}

func (h *Handler) handleDeleteSchoolQuiz(w http.ResponseWriter, r *http.Request) {
	q, ok := h.schoolQuiz(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteQuiz(q.ID); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "QuizDeleted")
}

// handleSchoolQuizResults lists completed attempts on a quiz with
// student names and the classroom average.
func (h *Handler) handleSchoolQuizResults(w http.ResponseWriter, r *http.Request) {
	q, ok := h.schoolQuiz(w, r)
	if !ok {
		return
	}
	attempts, err := h.store.ListAttemptsByQuiz(q.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}

	type result struct {
		AttemptID   int64   `json:"attempt_id"`
		StudentID   int64   `json:"student_id"`
		StudentName string  `json:"student_name"`
		Score       string  `json:"score"`
		Percent     float64 `json:"percent"`
	}
	var results []result
	var sum float64
	for _, a := range attempts {
		if a.Pending() || a.PrincipalKind != model.KindStudent {
			continue
		}
		obtained, total, ok := grading.ParseDisplayScore(a.Score)
		if !ok {
			continue
		}
		st, err := h.store.GetStudent(a.PrincipalID)
		if err != nil {
			continue
		}
		percent := obtained / float64(total) * 100
		sum += percent
		results = append(results, result{
			AttemptID:   a.ID,
			StudentID:   st.ID,
			StudentName: st.Name,
			Score:       a.Score,
			Percent:     percent,
		})
	}

	average := 0.0
	if len(results) > 0 {
		average = sum / float64(len(results))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"quiz_id": q.ID,
		"topic":   q.Topic,
		"results": results,
		"average": average,
	})
}

func (h *Handler) handleUpdateSchoolSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GeminiAPIKey string `json:"gemini_api_key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.UpdateSchoolKey(principal(r).ID, req.GeminiAPIKey); err != nil {
		respondError(w, r, http.StatusInternalServerError, "ErrInvalidRequest")
		return
	}
	respondMessage(w, r, "SettingsSaved")
}
