package security

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"dactylo_api/internal/common"
)

//go:embed common_passwords.txt
var commonPasswordsFile string

var commonPasswords = loadDenylist(commonPasswordsFile)

func loadDenylist(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		if word := strings.TrimSpace(scanner.Text()); word != "" {
			set[strings.ToLower(word)] = struct{}{}
		}
	}
	return set
}

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      72,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
	}
}

// Check returns an error wrapping common.ErrValidation describing the first broken rule.
func (p PasswordPolicy) Check(password string) error {
	length := utf8.RuneCountInString(password)
	if length == 0 {
		return fmt.Errorf("le mot de passe ne peut pas être vide: %w", common.ErrValidation)
	}
	if length < p.MinLength {
		return fmt.Errorf("le mot de passe doit contenir au moins %d caractères: %w", p.MinLength, common.ErrValidation)
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return fmt.Errorf("le mot de passe ne peut pas dépasser %d caractères: %w", p.MaxLength, common.ErrValidation)
	}
	// bcrypt rejects longer inputs whatever MaxLength says.
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("le mot de passe ne peut pas dépasser %d octets: %w", maxPasswordBytes, common.ErrValidation)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			special = true
		}
	}
	if p.RequireUpper && !upper {
		return fmt.Errorf("le mot de passe doit contenir une majuscule: %w", common.ErrValidation)
	}
	if p.RequireLower && !lower {
		return fmt.Errorf("le mot de passe doit contenir une minuscule: %w", common.ErrValidation)
	}
	if p.RequireDigit && !digit {
		return fmt.Errorf("le mot de passe doit contenir un chiffre: %w", common.ErrValidation)
	}
	if p.RequireSpecial && !special {
		return fmt.Errorf("le mot de passe doit contenir un caractère spécial: %w", common.ErrValidation)
	}

	if _, found := commonPasswords[strings.ToLower(password)]; found {
		return fmt.Errorf("ce mot de passe est trop courant: %w", common.ErrValidation)
	}
	return nil
}
