package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tobenna/quizforge/internal/auth"
	"github.com/tobenna/quizforge/internal/docparse"
	"github.com/tobenna/quizforge/internal/i18n"
	"github.com/tobenna/quizforge/internal/llm"
	"github.com/tobenna/quizforge/internal/llm/prompts"
	"github.com/tobenna/quizforge/internal/model"
	"github.com/tobenna/quizforge/internal/quiz"
	"github.com/tobenna/quizforge/internal/store"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	router http.Handler
	store  *store.Store
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authSvc := auth.NewService("test-secret")
	h := New(st, quiz.NewService(st), authSvc, docparse.New(""), llm.Config{Provider: "gemini"})

	r := chi.NewRouter()
	r.Use(i18n.Middleware("en"))
	h.Routes(r)
	return &testEnv{router: r, store: st, auth: authSvc}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestIndividualRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register: status %d: %s", w.Code, w.Body.String())
	}
	var reg tokenResponse
	decodeResponse(t, w, &reg)
	if reg.Token == "" {
		t.Fatal("register returned no token")
	}

	// Token names the right principal.
	p, err := env.auth.Parse(reg.Token)
	if err != nil || p.Kind != model.KindIndividual {
		t.Fatalf("token parse = %+v, %v", p, err)
	}

	w = env.do(t, http.MethodPost, "/individual/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/individual/login", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login: status %d: %s", w.Code, w.Body.String())
	}

	// Duplicate registration is rejected.
	w = env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Ada2", "email": "ada@example.com", "password": "x",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d", w.Code)
	}
}

func TestAuthGating(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/individual/history", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/individual/history", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d", w.Code)
	}

	// A school token must not open individual routes.
	schoolToken, err := env.auth.Issue(model.Principal{Kind: model.KindSchool, ID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if w := env.do(t, http.MethodGet, "/individual/history", schoolToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("cross-portal token: status %d", w.Code)
	}
}

func TestGenerateQuizWithoutKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "pw",
	})
	var reg tokenResponse
	decodeResponse(t, w, &reg)

	w = env.do(t, http.MethodPost, "/individual/generate-quiz", reg.Token, map[string]any{
		"topic": "Photosynthesis", "num_questions": 3,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeResponse(t, w, &resp)
	if resp["error"] != "Add your API key in Settings before generating quizzes." {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestDocumentUploadTruncatesContent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "pw",
	})
	var reg tokenResponse
	decodeResponse(t, w, &reg)
	p, _ := env.auth.Parse(reg.Token)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(strings.Repeat("a", prompts.ContextLimit+500)))
	mw.WriteField("topic", "Notes")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/individual/generate-quiz-from-doc", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	// No API key, so generation is refused, but the parsed document
	// is stored first.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	docs, err := env.store.ListDocuments(model.KindIndividual, p.ID)
	if err != nil || len(docs) != 1 {
		t.Fatalf("documents = %d, err = %v", len(docs), err)
	}
	doc, err := env.store.GetDocument(docs[0].ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if len(doc.Content) != prompts.ContextLimit {
		t.Errorf("stored content length = %d, want %d", len(doc.Content), prompts.ContextLimit)
	}
}

func TestSubmitQuizObjective(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "pw",
	})
	var reg tokenResponse
	decodeResponse(t, w, &reg)
	p, _ := env.auth.Parse(reg.Token)

	quizID, err := env.store.CreateQuiz(model.Quiz{
		OwnerKind: model.KindIndividual,
		OwnerID:   p.ID,
		Topic:     "Geography",
		Format:    model.FormatObjective,
		Questions: []model.Question{
			{ID: 1, Text: "Capital of France?", CorrectAnswer: "A",
				Options: map[string]string{"A": "Paris", "B": "Lyon", "C": "Nice", "D": "Lille"}},
			{ID: 2, Text: "Capital of Japan?", CorrectAnswer: "C",
				Options: map[string]string{"A": "Osaka", "B": "Kyoto", "C": "Tokyo", "D": "Nagoya"}},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}

	w = env.do(t, http.MethodPost, "/individual/submit-quiz", reg.Token, map[string]any{
		"quiz_id": quizID,
		"answers": map[string]string{"1": "a", "2": "B"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Score   string             `json:"score"`
		Results []model.GradeEntry `json:"results"`
	}
	decodeResponse(t, w, &resp)
	if resp.Score != "1/2" {
		t.Errorf("score = %q, want 1/2", resp.Score)
	}
	if len(resp.Results) != 2 || !resp.Results[0].Correct || resp.Results[1].Correct {
		t.Errorf("results = %+v", resp.Results)
	}

	// The attempt is in history.
	w = env.do(t, http.MethodGet, "/individual/history", reg.Token, nil)
	var hist struct {
		Attempts []model.Attempt `json:"attempts"`
	}
	decodeResponse(t, w, &hist)
	if len(hist.Attempts) != 1 || hist.Attempts[0].Score != "1/2" {
		t.Fatalf("history = %+v", hist.Attempts)
	}

	// The detail view returns the graded feedback.
	attemptPath := "/individual/history/" + strconv.FormatInt(hist.Attempts[0].ID, 10)
	w = env.do(t, http.MethodGet, attemptPath, reg.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("attempt detail: status %d: %s", w.Code, w.Body.String())
	}
	var detail model.Attempt
	decodeResponse(t, w, &detail)
	if detail.Score != "1/2" || len(detail.Feedback) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	// Another account cannot read it.
	w = env.do(t, http.MethodPost, "/individual/register", "", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "pw",
	})
	var other tokenResponse
	decodeResponse(t, w, &other)
	if w = env.do(t, http.MethodGet, attemptPath, other.Token, nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign attempt: status %d, want 404", w.Code)
	}
}

func TestSchoolAndStudentFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/school/register", "", map[string]string{
		"name": "Hillcrest", "email": "admin@hillcrest.edu", "password": "pw", "country": "Nigeria",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("school register: status %d: %s", w.Code, w.Body.String())
	}
	var school tokenResponse
	decodeResponse(t, w, &school)

	w = env.do(t, http.MethodPost, "/school/classrooms", school.Token, map[string]string{
		"name": "JSS1A", "grade_level": "JSS 1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create classroom: status %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ClassroomID int64 `json:"classroom_id"`
	}
	decodeResponse(t, w, &created)

	w = env.do(t, http.MethodPost,
		"/school/classrooms/"+strconv.FormatInt(created.ClassroomID, 10)+"/students", school.Token,
		map[string]any{"students": []map[string]string{
			{"name": "Chidi Okafor"},
			{"name": "Amina Bello"},
		}})
	if w.Code != http.StatusOK {
		t.Fatalf("import students: status %d: %s", w.Code, w.Body.String())
	}
	var imported struct {
		Message  string `json:"message"`
		Students []struct {
			ID       int64  `json:"id"`
			Code     string `json:"code"`
			Password string `json:"password"`
		} `json:"students"`
	}
	decodeResponse(t, w, &imported)
	if imported.Message != "2 students imported." {
		t.Errorf("message = %q", imported.Message)
	}
	if len(imported.Students) != 2 || imported.Students[0].Code == "" {
		t.Fatalf("credentials = %+v", imported.Students)
	}

	// Students log in with the generated credentials.
	w = env.do(t, http.MethodPost, "/student/login", "", map[string]string{
		"code":     imported.Students[0].Code,
		"password": imported.Students[0].Password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("student login: status %d: %s", w.Code, w.Body.String())
	}
	var student tokenResponse
	decodeResponse(t, w, &student)

	w = env.do(t, http.MethodGet, "/student/profile", student.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("student profile: status %d: %s", w.Code, w.Body.String())
	}
	var profile map[string]any
	decodeResponse(t, w, &profile)
	if profile["classroom"] != "JSS1A" || profile["school"] != "Hillcrest" {
		t.Errorf("profile = %+v", profile)
	}

	w = env.do(t, http.MethodGet, "/school/dashboard", school.Token, nil)
	var dash map[string]float64
	decodeResponse(t, w, &dash)
	if dash["classrooms"] != 1 || dash["students"] != 2 {
		t.Errorf("dashboard = %+v", dash)
	}

	// Assignments are stored without questions; each student's first
	// start generates their own set, so creating one needs no key.
	w = env.do(t, http.MethodPost, "/school/quizzes", school.Token, map[string]any{
		"classroom_id":  created.ClassroomID,
		"topic":         "Fractions",
		"format":        "objective",
		"num_questions": 5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create assignment: status %d: %s", w.Code, w.Body.String())
	}
	var assignment struct {
		QuizID int64 `json:"quiz_id"`
	}
	decodeResponse(t, w, &assignment)
	q, err := env.store.GetQuiz(assignment.QuizID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if len(q.Questions) != 0 {
		t.Fatalf("assignment stored %d questions, want none until a student starts", len(q.Questions))
	}

	// Starting it does need a key, and nobody has one yet.
	startPath := "/student/quizzes/" + strconv.FormatInt(assignment.QuizID, 10) + "/start"
	if w = env.do(t, http.MethodPost, startPath, student.Token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("keyless start: status %d, want 400", w.Code)
	}

	// Students can store their own provider key.
	w = env.do(t, http.MethodPut, "/student/profile", student.Token, map[string]string{
		"gemini_api_key": "student-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update student profile: status %d: %s", w.Code, w.Body.String())
	}
	st, err := env.store.GetStudent(imported.Students[0].ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if st.GeminiAPIKey != "student-key" {
		t.Errorf("stored key = %q, want student-key", st.GeminiAPIKey)
	}

	// Deleting the classroom removes its students too.
	classroomPath := "/school/classrooms/" + strconv.FormatInt(created.ClassroomID, 10)
	if w = env.do(t, http.MethodDelete, classroomPath, school.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete classroom: status %d: %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/school/dashboard", school.Token, nil)
	decodeResponse(t, w, &dash)
	if dash["classrooms"] != 0 || dash["students"] != 0 {
		t.Errorf("dashboard after delete = %+v", dash)
	}
}

func TestEducationEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/education/countries", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("countries: status %d", w.Code)
	}
	var countries struct {
		Countries []string `json:"countries"`
	}
	decodeResponse(t, w, &countries)
	if len(countries.Countries) == 0 {
		t.Fatal("no countries returned")
	}

	w = env.do(t, http.MethodGet, "/education/levels?country=Ghana", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("levels: status %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/education/levels?country=Atlantis", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown country: status %d", w.Code)
	}
}

