package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	engineErr := errors.New("disk on fire")

	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{
			name: "init",
			err:  InitError("open", engineErr),
			kind: ErrStorageInit,
			msg:  "storage init error: open: disk on fire",
		},
		{
			name: "read",
			err:  ReadError("find", "user1", engineErr),
			kind: ErrStorageRead,
			msg:  `storage read error: find "user1": disk on fire`,
		},
		{
			name: "write",
			err:  WriteError("saveAll", BatchKey, engineErr),
			kind: ErrStorageWrite,
			msg:  `storage write error: saveAll "batch": disk on fire`,
		},
		{
			name: "codec",
			err:  CodecError("find", "user1", engineErr),
			kind: ErrCodec,
			msg:  `codec error: find "user1": disk on fire`,
		},
	}

	kinds := []error{ErrStorageInit, ErrStorageRead, ErrStorageWrite, ErrCodec}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, tc.err, tc.msg)
			assert.ErrorIs(t, tc.err, engineErr)
			for _, k := range kinds {
				assert.Equal(t, k == tc.kind, errors.Is(tc.err, k), "kind %v", k)
			}
		})
	}
}

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", WriteError("save", "k", ErrClosed))

	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.ErrorIs(t, err, ErrClosed)

	var dbErr *Error
	if assert.ErrorAs(t, err, &dbErr) {
		assert.Equal(t, "save", dbErr.Op)
		assert.Equal(t, "k", dbErr.Key)
	}
}
