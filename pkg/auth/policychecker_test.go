package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aigovpro/authcore/pkg/errors"
)

func TestPolicyCheckerDefaults(t *testing.T) {
	checker := NewPolicyChecker(nil)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "GoodPass#1Long", wantErr: false},
		{name: "valid with spaces", password: "Correct Horse #9 Battery", wantErr: false},
		{name: "too short", password: "Sh0rt!pass", wantErr: true},
		{name: "no uppercase", password: "goodpass#1long", wantErr: true},
		{name: "no lowercase", password: "GOODPASS#1LONG", wantErr: true},
		{name: "no digit", password: "GoodPass#Long!", wantErr: true},
		{name: "no special char", password: "GoodPass1Long2", wantErr: true},
		{name: "repeated run", password: "GoodPasss#1Long", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Check(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodePasswordComplexity))
				assert.NotEmpty(t, errors.GetMessage(err), "violation message must be renderable")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyCheckerCommonWords(t *testing.T) {
	checker := NewPolicyChecker(&PasswordPolicy{
		MinLength:           12,
		DisallowCommonWords: true,
	})

	assert.Error(t, checker.Check("Qwerty!Extra#Pad"))
	assert.NoError(t, checker.Check("Unrelated#Phrase9"))
}

func TestPolicyCheckerCustomPolicy(t *testing.T) {
	checker := NewPolicyChecker(&PasswordPolicy{MinLength: 4})

	// Only length is enforced when the other requirements are off
	assert.NoError(t, checker.Check("abcd"))
	assert.Error(t, checker.Check("abc"))
}

func TestPolicyCheckerRequirements(t *testing.T) {
	reqs := NewPolicyChecker(nil).Requirements()
	assert.Equal(t, 12, reqs["min_length"])
	assert.Equal(t, true, reqs["uppercase"])
}
