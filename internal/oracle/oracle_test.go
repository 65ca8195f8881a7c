package oracle_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
	"github.com/teleivo/vyper/internal/oracle"
	"github.com/teleivo/vyper/token"
)

func TestTokensEquivalent(t *testing.T) {
	tests := map[string]struct {
		original  string
		formatted string
	}{
		"Identical": {
			original:  "x: uint256 = 1\n",
			formatted: "x: uint256 = 1\n",
		},
		"Whitespace": {
			original:  "x:uint256=a+b\n",
			formatted: "x: uint256 = a + b\n",
		},
		"Comments": {
			original:  "# first\nx = 1 # one\n",
			formatted: "x = 1\n",
		},
		"BlankLines": {
			original:  "x = 1\n\n\n\n\ny = 2\n",
			formatted: "x = 1\n\n\ny = 2\n",
		},
		"BracketsSplitOverLines": {
			original:  "self.b(0, msg.sender, True)\n",
			formatted: "self.b(\n    0,\n    msg.sender,\n    True,\n)\n",
		},
		"TrailingCommaRemoved": {
			original:  "self.b(0, msg.sender, True,)\n",
			formatted: "self.b(0, msg.sender, True)\n",
		},
		"ParameterTrailingComma": {
			original:  "def set_owner(owner: address):\n    pass\n",
			formatted: "def set_owner(\n    owner: address,\n):\n    pass\n",
		},
		"ParenthesesAroundRightHandSide": {
			original:  "total: uint256 = a + b + c\n",
			formatted: "total: uint256 = (\n    a\n    + b\n    + c\n)\n",
		},
		"ParenthesesAroundCondition": {
			original:  "if (x > 1):\n    pass\n",
			formatted: "if x > 1:\n    pass\n",
		},
		"ParenthesesAroundAssertOperands": {
			original:  "assert x > 1, \"too small\"\n",
			formatted: "assert (x > 1), (\"too small\")\n",
		},
		"ParenthesesAroundTupleAssignment": {
			original:  "a, b = b, a\n",
			formatted: "(a, b) = (b, a)\n",
		},
		"QuoteStyle": {
			original:  "x: String[10] = 'it\\'s'\n",
			formatted: "x: String[10] = \"it's\"\n",
		},
		"StringPrefixCase": {
			original:  "x: Bytes[1] = B'a'\n",
			formatted: "x: Bytes[1] = b\"a\"\n",
		},
		"DocstringIndentation": {
			original:  "def f():\n    \"\"\"\n        Transfer.\n        \"\"\"\n    pass\n",
			formatted: "def f():\n    \"\"\"\n    Transfer.\n    \"\"\"\n    pass\n",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := oracle.Tokens{}.Compare([]byte(test.original), []byte(test.formatted))

			assert.NoErrorf(t, err, "Compare(%q, %q)", test.original, test.formatted)
		})
	}
}

func TestTokensNotEquivalent(t *testing.T) {
	tests := map[string]struct {
		original  string
		formatted string
		want      *oracle.MismatchError
	}{
		"ChangedName": {
			original:  "x = a\n",
			formatted: "x = b\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 1, Column: 5},
				Want: `name "a"`,
				Got:  `name "b"`,
			},
		},
		"OneTupleLosesComma": {
			original:  "x = (a,)\n",
			formatted: "x = (a)\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 1, Column: 7},
				Want: `","`,
				Got:  `"NEWLINE"`,
			},
		},
		"SubscriptLosesComma": {
			original:  "x = y[a,]\n",
			formatted: "x = y[a]\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 1, Column: 8},
				Want: `","`,
				Got:  `"]"`,
			},
		},
		"GroupingParenthesesRemoved": {
			original:  "x = (a + b) * c\n",
			formatted: "x = a + b * c\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 1, Column: 5},
				Want: `"("`,
				Got:  `name "a"`,
			},
		},
		"AssertOperandsBecomeTuple": {
			original:  "assert a, b\n",
			formatted: "assert (a, b)\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 1, Column: 8},
				Want: `name "a"`,
				Got:  `"("`,
			},
		},
		"StatementDropped": {
			original:  "x = 1\ny = 2\n",
			formatted: "x = 1\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 2, Column: 1},
				Want: `name "y"`,
				Got:  `"EOF"`,
			},
		},
		"BlockDedented": {
			original:  "if x:\n    y = 1\nz = 2\n",
			formatted: "if x:\n    y = 1\n    z = 2\n",
			want: &oracle.MismatchError{
				Pos:  token.Position{Line: 3, Column: 1},
				Want: `"DEDENT"`,
				Got:  `name "z"`,
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := oracle.Tokens{}.Compare([]byte(test.original), []byte(test.formatted))

			require.NotNilf(t, err, "Compare(%q, %q) should fail", test.original, test.formatted)
			var got *oracle.MismatchError
			require.Truef(t, errors.As(err, &got), "Compare(%q, %q) want *MismatchError, got %T", test.original, test.formatted, err)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Compare(%q, %q) mismatch (-want +got):\n%s", test.original, test.formatted, diff)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	t.Run("Equivalent", func(t *testing.T) {
		c := oracle.Func(func(original, formatted []byte) bool { return true })

		err := c.Compare([]byte("x = 1\n"), []byte("x = 1\n"))

		assert.NoErrorf(t, err, "Compare() with an accepting func")
	})

	t.Run("NotEquivalent", func(t *testing.T) {
		c := oracle.Func(func(original, formatted []byte) bool { return false })

		err := c.Compare([]byte("x = 1\n"), []byte("x = 2\n"))

		var got *oracle.MismatchError
		require.Truef(t, errors.As(err, &got), "Compare() want *MismatchError, got %T", err)
		assert.EqualValuesf(t, got.Error(), "formatted code is not equivalent to the source", "Error()")
	})
}
