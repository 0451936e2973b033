package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,max=255,account_email"`
	Password string `json:"password" validate:"required,min=6"`
}

type secret struct {
	Password string `json:"password" validate:"required,max_bytes=72"`
}

func TestStructValid(t *testing.T) {
	err := Struct(signup{Name: "Example User", Email: "user@example.com", Password: "foobar"})
	assert.NoError(t, err)
}

func TestStructCollectsAllFields(t *testing.T) {
	err := Struct(signup{Name: strings.Repeat("a", 51), Email: "", Password: "abc"})
	require.Error(t, err)

	var errs Errs
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 3)
	assert.Equal(t, ErrField{Field: "name", Msg: "is too long (maximum is 50 characters)"}, errs[0])
	assert.Equal(t, ErrField{Field: "email", Msg: "can't be blank"}, errs[1])
	assert.Equal(t, ErrField{Field: "password", Msg: "is too short (minimum is 6 characters)"}, errs[2])
	assert.Contains(t, err.Error(), "name: is too long")
}

func TestEmailFormat(t *testing.T) {
	valid := []string{"user@example.com", "USER@foo.COM", "A_US-ER@foo.bar.org", "first.last@foo.jp", "alice+bob@baz.cn"}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	invalid := []string{"user@example,com", "user_at_foo.org", "user.name@example.", "foo@bar_baz.com", "foo@bar+baz.com"}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestStructRejectsBadEmail(t *testing.T) {
	err := Struct(signup{Name: "n", Email: "user@example,com", Password: "foobar"})
	var errs Errs
	require.ErrorAs(t, err, &errs)
	assert.True(t, errs.Has("email"))
	assert.False(t, errs.Has("name"))
}

func TestCollect(t *testing.T) {
	assert.NoError(t, Collect(Required("email", "a"), nil))
	err := Collect(Required("email", "  "), Required("password", ""))
	var errs Errs
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}

func TestStructMaxBytesCountsBytes(t *testing.T) {
	assert.NoError(t, Struct(secret{Password: strings.Repeat("a", 72)}))
	assert.NoError(t, Struct(secret{Password: strings.Repeat("é", 36)}))

	// 40 runes, 80 bytes
	err := Struct(secret{Password: strings.Repeat("é", 40)})
	var errs Errs
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, Errs{{Field: "password", Msg: "is too long (maximum is 72 bytes)"}}, errs)
}
