package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

func TestOptional_JSON(t *testing.T) {
	type profile struct {
		FullName domain.Optional[string] `json:"fullName"`
	}

	testCases := []struct {
		name string
		in   profile
		want string
	}{
		{name: "present", in: profile{FullName: domain.Some("张三")}, want: `{"fullName":"张三"}`},
		{name: "present but empty", in: profile{FullName: domain.Some("")}, want: `{"fullName":""}`},
		{name: "absent", in: profile{FullName: domain.None[string]()}, want: `{"fullName":null}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(data))

			var decoded profile
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc.in, decoded)
		})
	}
}

func TestOptional_Scan(t *testing.T) {
	var o domain.Optional[string]

	require.NoError(t, o.Scan("a@example.com"))
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", v)

	require.NoError(t, o.Scan(nil))
	_, ok = o.Get()
	assert.False(t, ok)
	assert.Equal(t, "fallback", o.OrElse("fallback"))

	value, err := domain.Some("M000001").Value()
	require.NoError(t, err)
	assert.Equal(t, "M000001", value)

	value, err = domain.None[string]().Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
