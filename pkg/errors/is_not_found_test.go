package errors_test

import (
	"fmt"
	"testing"

	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			"Generic NotFound",
			errors.NotFound("not found"),
			true,
		},
		{
			"Node NotFound",
			errors.New(errors.CodeNodeNotFound, "node not found"),
			true,
		},
		{
			"Atom NotFound",
			errors.New(errors.CodeAtomNotFound, "atom not found"),
			true,
		},
		{
			"Unknown NodeType",
			errors.New(errors.CodeUnknownNodeType, "node type not registered"),
			true,
		},
		{
			"Internal Error",
			errors.Internal("internal error"),
			false,
		},
		{
			"Wrapped NotFound",
			errors.Wrap(errors.NotFound("not found"), errors.CodeInternal, "wrapped"),
			true,
		},
		{
			"Plain error",
			fmt.Errorf("plain error"),
			false,
		},
		{
			"Nil error",
			nil,
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errors.IsNotFound(tc.err))
		})
	}
}
