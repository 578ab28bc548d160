package auth

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateStudentCode builds a login code from the school name and a
// random suffix, e.g. "HIL-3F9A". Codes are what students type at
// login, so they stay short and unambiguous. Uniqueness is enforced by
// the store; callers retry on collision.
func GenerateStudentCode(schoolName string) string {
	return schoolPrefix(schoolName) + "-" + randomSuffix()
}

// GenerateStudentPassword returns a random initial password handed to
// students on import.
func GenerateStudentPassword() string {
	return strings.ToLower(randomSuffix() + randomSuffix())
}

// schoolPrefix takes the first three letters of the school name,
// uppercased, falling back to "STU" for names too short or entirely
// non-alphabetic.
func schoolPrefix(name string) string {
	var letters []rune
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters = append(letters, r)
			if len(letters) == 3 {
				break
			}
		}
	}
	if len(letters) < 3 {
		return "STU"
	}
	return strings.ToUpper(string(letters))
}

func randomSuffix() string {
	id := uuid.NewString()
	return strings.ToUpper(strings.ReplaceAll(id, "-", "")[:4])
}
