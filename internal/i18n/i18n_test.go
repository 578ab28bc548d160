package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "QuizForge" {
		t.Errorf("T(AppTitle) = %q, want 'QuizForge'", got)
	}

	got = T(ctx, "ErrQuizNotFound")
	if got != "Quiz not found." {
		t.Errorf("T(ErrQuizNotFound) = %q, want 'Quiz not found.'", got)
	}
}

func TestTranslateFrench(t *testing.T) {
	ctx := initLang(t, "fr")

	got := T(ctx, "ErrQuizNotFound")
	if got != "Quiz introuvable." {
		t.Errorf("T(ErrQuizNotFound) = %q, want 'Quiz introuvable.'", got)
	}

	got = T(ctx, "SettingsSaved")
	if got != "Paramètres enregistrés." {
		t.Errorf("T(SettingsSaved) = %q, want 'Paramètres enregistrés.'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "StudentsImported", 1)
	if got1 != "1 student imported." {
		t.Errorf("Tp(StudentsImported, 1) = %q, want '1 student imported.'", got1)
	}

	got5 := Tp(ctx, "StudentsImported", 5)
	if got5 != "5 students imported." {
		t.Errorf("Tp(StudentsImported, 5) = %q, want '5 students imported.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "QuizN", map[string]any{"ID": 42})
	if got != "Quiz #42" {
		t.Errorf("Td(QuizN, ID=42) = %q, want 'Quiz #42'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key echoed back", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	handler := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "ErrQuizNotFound")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Quiz introuvable." {
		t.Errorf("french request got %q", got)
	}
}
