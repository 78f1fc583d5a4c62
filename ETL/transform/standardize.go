package transform

import "strings"

// Обозначения пола в измерении клиентов
const (
	GenderMasculine = "Masculine"
	GenderFeminine  = "Feminine"
)

// StandardizeGender переводит однобуквенные коды в обозначения.
// Любое другое значение, включая «Not informed», остается без изменений.
func StandardizeGender(gender string) string {
	switch gender {
	case "M":
		return GenderMasculine
	case "F":
		return GenderFeminine
	default:
		return gender
	}
}

// StandardizeState переводит код штата в верхний регистр
func StandardizeState(state string) string {
	return strings.ToUpper(state)
}
