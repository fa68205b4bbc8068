package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
	"coursereg/internal/protocol"
	"coursereg/internal/store"
)

func newDirectory(t *testing.T) *store.Catalog {
	t.Helper()
	hash, err := HashPasswordCost("hunter2", bcrypt.MinCost)
	require.NoError(t, err)

	c := store.NewCatalog()
	c.AddStudent(domain.Student{ID: "30012345", Name: "Ada", PasswordHash: hash})
	c.AddStudent(domain.Student{ID: "30099999", Name: "No Password"})
	return c
}

func TestPasswordResolver(t *testing.T) {
	r := New(newDirectory(t), true)
	ctx := context.Background()

	s, err := r.Resolve(ctx, protocol.Decode("30012345\thunter2\n"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.Name)

	tests := []struct {
		name string
		line string
		want error
	}{
		{"wrong password", "30012345\twrong", errors.ErrAuthFailed},
		{"unknown id", "1\thunter2", errors.ErrAuthFailed},
		{"no stored hash", "30099999\tanything", errors.ErrAuthFailed},
		{"missing password", "30012345", errors.ErrBadHandshake},
		{"too many fields", "30012345\thunter2\textra", errors.ErrBadHandshake},
		{"blank id", " \thunter2", errors.ErrBadHandshake},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, protocol.Decode(tt.line))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPasswordResolver_UnknownIDLooksLikeWrongPassword(t *testing.T) {
	r := New(newDirectory(t), true)
	_, err := r.Resolve(context.Background(), protocol.Decode("nobody\tx"))
	assert.ErrorIs(t, err, errors.ErrAuthFailed)
	assert.ErrorIs(t, err, errors.ErrStudentNotFound)
}

func TestTrustedResolver(t *testing.T) {
	r := New(newDirectory(t), false)
	ctx := context.Background()

	s, err := r.Resolve(ctx, protocol.Decode("30099999"))
	require.NoError(t, err)
	assert.Equal(t, "No Password", s.Name)

	s, err = r.Resolve(ctx, protocol.Decode("30012345\tignored"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.Name)

	_, err = r.Resolve(ctx, protocol.Decode("nobody"))
	assert.ErrorIs(t, err, errors.ErrAuthFailed)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPasswordCost("", bcrypt.MinCost)
	assert.Error(t, err)
}
