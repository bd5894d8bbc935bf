package social

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStorageErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), ErrAlreadyExists},
		{"foreign key", gorm.ErrForeignKeyViolated, ErrNotFound},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"anything else", errors.New("connection reset"), ErrUnavailable},
		{"already classified", forbidden("op", "nope"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storageErr("op", tt.err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, storageErr("op", nil))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(notFound("op", "x")))
	assert.True(t, IsClientError(invalid("op", "x")))
	assert.True(t, IsClientError(newError(ErrConflict, "op", "x")))
	assert.False(t, IsClientError(storageErr("op", errors.New("disk"))))
	assert.False(t, IsClientError(errors.New("plain")))
	assert.False(t, IsClientError(nil))
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: ErrUnavailable, Op: "post.create", Msg: "upload failed", Err: errors.New("timeout")}
	assert.Equal(t, "post.create: upload failed: timeout", err.Error())

	err = &Error{Kind: ErrNotFound, Op: "user.get"}
	assert.Equal(t, "user.get: not found", err.Error())
}
