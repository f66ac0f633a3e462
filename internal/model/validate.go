package model

import (
	"strings"

	"userapi/internal/apperrors"
)

// Validation rules shared by register, create and update.

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("Nome e obrigatorio")
	}
	return nil
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Validation("Email e obrigatorio")
	}
	if !strings.Contains(email, "@") {
		return apperrors.Validation("Email deve ter formato valido")
	}
	return nil
}

func ValidateAge(age *int) error {
	if age == nil {
		return nil
	}
	if *age < 0 || *age > 150 {
		return apperrors.Validation("Idade deve estar entre 0 e 150 anos")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.Validation("Senha e obrigatoria")
	}
	return nil
}
