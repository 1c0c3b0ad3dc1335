package security

import (
	"strings"
	"testing"

	"dactylo_api/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestPasswordPolicyCheck(t *testing.T) {
	policy := DefaultPasswordPolicy()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"strong", "Alice#2024pw", true},
		{"empty", "", false},
		{"too short", "Ab1!", false},
		{"no upper", "alice#2024pw", false},
		{"no lower", "ALICE#2024PW", false},
		{"no digit", "Alice#pwpwpw", false},
		{"no special", "Alice2024pw", false},
		{"denylisted", "Password1!", false},
		{"over bcrypt limit", "Aa1!" + strings.Repeat("x", 70), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check(tt.password)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestPasswordPolicyRelaxed(t *testing.T) {
	policy := PasswordPolicy{MinLength: 4}
	assert.NoError(t, policy.Check("abcd"))
	assert.ErrorIs(t, policy.Check("abc"), common.ErrValidation)
}

func TestPasswordPolicyBcryptLimitWithoutMaxLength(t *testing.T) {
	policy := PasswordPolicy{MinLength: 8}
	long := "Aa1!" + strings.Repeat("x", 80)

	assert.ErrorIs(t, policy.Check(long), common.ErrValidation)
	assert.NoError(t, policy.Check("Aa1!"+strings.Repeat("x", 68)))

	// 37 two-byte runes stay under the rune limit but exceed 72 bytes.
	assert.ErrorIs(t, PasswordPolicy{MaxLength: 72}.Check(strings.Repeat("é", 37)), common.ErrValidation)
}
