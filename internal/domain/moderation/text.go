// Package moderation проверяет пользовательский текст (имя, био, сообщения,
// обоснования апелляций) на недопустимую лексику и персональные данные.
package moderation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

var profanity = []string{
	"fuck", "shit", "bitch", "cunt", "asshole", "bastard", "damn", "hell",
	"piss", "dick", "pussy", "nigger", "faggot",
}

var familyTerms = []string{
	"mother", "father", "sister", "brother", "mom", "dad", "son", "daughter",
	"uncle", "aunt", "cousin", "grandma", "grandpa", "grandmother", "grandfather",
}

// Слова ловятся целиком с типичными окончаниями: "hell" не срабатывает на "hello".
var (
	profanityRe = wordSet(profanity, `(?:s|es|ed|er|ing|y)?`)
	familyRe    = wordSet(familyTerms, `s?`)
	ipRe        = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	emailRe     = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phoneRe     = regexp.MustCompile(`\b(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

func wordSet(words []string, suffix string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)` + suffix + `\b`)
}

// Violation - тип нарушения.
type Violation string

const (
	ViolationNone      Violation = ""
	ViolationProfanity Violation = "profanity"
	ViolationFamily    Violation = "family"
	ViolationIP        Violation = "ip_address"
	ViolationEmail     Violation = "email"
	ViolationPhone     Violation = "phone"
)

// Classify возвращает первое найденное нарушение.
func Classify(text string) Violation {
	switch {
	case profanityRe.MatchString(text):
		return ViolationProfanity
	case familyRe.MatchString(text):
		return ViolationFamily
	case ipRe.MatchString(text):
		return ViolationIP
	case emailRe.MatchString(text):
		return ViolationEmail
	case phoneRe.MatchString(text):
		return ViolationPhone
	default:
		return ViolationNone
	}
}

// CheckText возвращает ошибку валидации с понятным пользователю сообщением,
// если текст содержит нарушение. field - название поля для сообщения.
func CheckText(text, field string) error {
	if field == "" {
		field = "input"
	}

	var msg string
	switch Classify(text) {
	case ViolationNone:
		return nil
	case ViolationProfanity:
		msg = "The " + field + " contains inappropriate language. Please remove it."
	case ViolationFamily:
		msg = "Please do not include personal information about family members in the " + field + "."
	case ViolationIP:
		msg = "The " + field + " appears to contain an IP address, which is not allowed."
	case ViolationEmail:
		msg = "The " + field + " appears to contain an email address, which is not allowed."
	case ViolationPhone:
		msg = "The " + field + " appears to contain a phone number, which is not allowed."
	}
	return shared.NewDomainError("moderation", "CheckText", shared.ErrValidation, msg)
}

// CheckAll проверяет несколько полей в порядке имён и возвращает первую ошибку.
func CheckAll(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)
	for _, field := range names {
		if err := CheckText(fields[field], field); err != nil {
			return err
		}
	}
	return nil
}
