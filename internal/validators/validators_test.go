package validators

import (
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidHandle(t *testing.T) {
	cases := []struct {
		handle string
		want   bool
	}{
		{"alice", true},
		{"Bob_99", true},
		{"ab", false},
		{"a_b", true},
		{strings.Repeat("x", 30), true},
		{strings.Repeat("x", 31), false},
		{"has space", false},
		{"dash-ed", false},
		{"émile", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidHandle(tc.handle), tc.handle)
	}
}

func TestHandleKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, HandleKey("Alice"), HandleKey("aLICE"))
}

func TestCheckBodyCountsGraphemes(t *testing.T) {
	// A family emoji is several code points but one grapheme.
	family := "👨‍👩‍👧‍👦"
	assert.Equal(t, 1, GraphemeCount(family))

	assert.NoError(t, CheckBody("op", strings.Repeat(family, BodyMaxLen)))
	err := CheckBody("op", strings.Repeat(family, BodyMaxLen+1))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckBodyLength(t *testing.T) {
	assert.ErrorIs(t, CheckBody("op", ""), apperr.ErrValidation)
	assert.NoError(t, CheckBody("op", " "), "a single space is one character")
	assert.NoError(t, CheckBody("op", "   \n"))
	assert.NoError(t, CheckBody("op", "hello"))
}

func TestCheckMaxLen(t *testing.T) {
	assert.NoError(t, CheckMaxLen("op", "bio", strings.Repeat("é", BioMaxLen), BioMaxLen))
	assert.ErrorIs(t, CheckMaxLen("op", "bio", strings.Repeat("é", BioMaxLen+1), BioMaxLen), apperr.ErrValidation)
}

type sample struct {
	Handle string `validate:"required,handle"`
	Body   string `validate:"required,maxgraphemes=5"`
}

func TestCustomValidatorTags(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(&sample{Handle: "carol", Body: "hi"}))

	err := v.Validate(&sample{Handle: "c!", Body: "hi"})
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	assert.Error(t, v.Validate(&sample{Handle: "carol", Body: "toolong"}))
}
