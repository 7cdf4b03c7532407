package validation

import (
	"fmt"
	"regexp"
)

// SurfacePattern определяет допустимое имя поверхности редактирования
// Строчные латинские буквы, цифры и дефис, начинается с буквы
var SurfacePattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// EntityIDPattern определяет допустимый формат идентификатора записи
// Латинские буквы, цифры, '_', '-' и '.'; ключ буфера строится как autosave:<surface>:<id>,
// поэтому ':' запрещено
var EntityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// MaxEntityIDLen максимальная длина идентификатора записи
const MaxEntityIDLen = 128

// ValidateSurface проверяет имя поверхности редактирования ("daily-plan", "task")
func ValidateSurface(surface string) error {
	if surface == "" {
		return fmt.Errorf("surface cannot be empty")
	}

	if !SurfacePattern.MatchString(surface) {
		return fmt.Errorf("surface must start with a letter and contain only lowercase letters, digits and '-' (max 32)")
	}

	return nil
}

// ValidateEntityID проверяет идентификатор записи
func ValidateEntityID(id string) error {
	if id == "" {
		return fmt.Errorf("entity id cannot be empty")
	}

	if len(id) > MaxEntityIDLen {
		return fmt.Errorf("entity id must not exceed %d characters", MaxEntityIDLen)
	}

	if id == "." || id == ".." {
		return fmt.Errorf("entity id %q is reserved", id)
	}

	if !EntityIDPattern.MatchString(id) {
		return fmt.Errorf("entity id can only contain letters, numbers, '_', '-' and '.'")
	}

	return nil
}
