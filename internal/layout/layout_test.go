package layout_test

import (
	"strings"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/internal/layout"
	"github.com/teleivo/vyper/internal/line"
)

func TestSplit(t *testing.T) {
	tests := map[string]struct {
		in       string
		maxWidth int
		want     string
	}{
		"Fits": {
			in:       "x: uint256 = 1\n",
			maxWidth: 80,
			want:     "x: uint256 = 1\n",
		},
		"CollapseCallWithoutTrailingComma": {
			in: `self.b(
    0,
    msg.sender,
    True
)
`,
			maxWidth: 80,
			want:     "self.b(0, msg.sender, True)\n",
		},
		"MagicTrailingCommaExplodesCall": {
			in:       "self.b(0, msg.sender, True,)\n",
			maxWidth: 80,
			want: `self.b(
    0,
    msg.sender,
    True,
)
`,
		},
		"MagicTrailingCommaKeepsComments": {
			in: `self.b(0, # amount
    msg.sender, # sender
    True, # refund
)
`,
			maxWidth: 80,
			want: `self.b(
    0,  # amount
    msg.sender,  # sender
    True,  # refund
)
`,
		},
		"CommentsOfCollapsedCallMoveToTheEnd": {
			in: `self.b(0, # amount
    msg.sender, # sender
    True # refund
)
`,
			maxWidth: 80,
			want:     "self.b(0, msg.sender, True)  # amount  # sender  # refund\n",
		},
		"OptionalParenthesesAroundRightHandSideOfAssignment": {
			in:       "total: uint256 = first_amount + second_amount + third_amount\n",
			maxWidth: 40,
			want: `total: uint256 = (
    first_amount
    + second_amount
    + third_amount
)
`,
		},
		"OptionalParenthesesAreOmittedIfTheCallCanBeSplit": {
			in:       "x = foo(aaaa, bbbb)\n",
			maxWidth: 15,
			want: `x = foo(
    aaaa, bbbb
)
`,
		},
		"DefinitionParametersFitOnOneLine": {
			in:       "def transfer(receiver: address, amount: uint256) -> bool:\n    pass\n",
			maxWidth: 40,
			want: `def transfer(
    receiver: address, amount: uint256
) -> bool:
`,
		},
		"DefinitionParametersOnePerLine": {
			in:       "def transfer(receiver: address, amount: uint256) -> bool:\n    pass\n",
			maxWidth: 30,
			want: `def transfer(
    receiver: address,
    amount: uint256,
) -> bool:
`,
		},
		"DefinitionSingleParameterGetsTrailingComma": {
			in:       "def set_owner(new_owner_address_value: address):\n    pass\n",
			maxWidth: 30,
			want: `def set_owner(
    new_owner_address_value: address,
):
`,
		},
		"StandaloneCommentStaysOnItsOwnLine": {
			in: `foo(a,  # first
    # standalone
    b)
`,
			maxWidth: 80,
			want: `foo(
    a,  # first
    # standalone
    b,
)
`,
		},
		"PowerOperatorIsHugged": {
			in:       "x = a ** 2\n",
			maxWidth: 80,
			want:     "x = a**2\n",
		},
		"LineThatCannotBeSplitOverflows": {
			in:       "x = aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
			maxWidth: 20,
			want:     "x = aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			doc := split(t, test.in, test.maxWidth)

			var got strings.Builder
			err := doc.Render(&got, layout.Default)
			require.NoErrorf(t, err, "failed to render default format")

			assert.EqualValuesf(t, got.String(), test.want, "Split(%q, %d)", test.in, test.maxWidth)
		})
	}

	t.Run("SplitLinesFitIntoMaxWidth", func(t *testing.T) {
		srcs := []string{
			"total: uint256 = first_amount + second_amount + third_amount\n",
			"x = foo(aaaa, bbbb)\n",
			"log Transfer(sender=msg.sender, receiver=receiver, value=amount)\n",
			"assert self.balanceOf[msg.sender] >= amount, \"insufficient balance\"\n",
		}
		for _, src := range srcs {
			doc := split(t, src, 40)
			for _, l := range doc.Lines() {
				assert.Truef(t, len(l) <= 40, "Split(%q) line %q exceeds 40 columns", src, l)
			}
		}
	})
}

func TestLayout(t *testing.T) {
	tests := map[string]struct {
		in       string
		maxWidth int
		want     string
	}{
		"Flat": {
			in:       "x: uint256 = 1\n",
			maxWidth: 80,
			want: `<line width=14 content="x: uint256 = 1"/>
`,
		},
		"Overflow": {
			in:       "x = aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n",
			maxWidth: 20,
			want: `<line width=46 overflow content="x = aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"/>
`,
		},
		"RightHandSplit": {
			in:       "x = foo(aaaa, bbbb)\n",
			maxWidth: 15,
			want: `<rhs>
	<line width=8 content="x = foo("/>
	<line width=14 content="    aaaa, bbbb"/>
	<line width=1 content=")"/>
</rhs>
`,
		},
		"DelimiterSplitInsideRightHandSplit": {
			in:       "self.b(0, msg.sender, True,)\n",
			maxWidth: 80,
			want: `<rhs>
	<line width=7 content="self.b("/>
	<delimiter>
		<line width=6 content="    0,"/>
		<line width=15 content="    msg.sender,"/>
		<line width=9 content="    True,"/>
	</delimiter>
	<line width=1 content=")"/>
</rhs>
`,
		},
		"HugPower": {
			in:       "x = a ** 2\n",
			maxWidth: 80,
			want: `<hug>
	<line width=8 content="x = a**2"/>
</hug>
`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			doc := split(t, test.in, test.maxWidth)

			var got strings.Builder
			err := doc.Render(&got, layout.Layout)
			require.NoErrorf(t, err, "failed to render layout format")

			assert.EqualValuesf(t, got.String(), test.want, "Split(%q, %d)", test.in, test.maxWidth)
		})
	}
}

func TestNewFormat(t *testing.T) {
	tests := map[string]struct {
		in   string
		want layout.Format
	}{
		"Default": {in: "default", want: layout.Default},
		"Layout":  {in: "layout", want: layout.Layout},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := layout.NewFormat(test.in)
			require.NoErrorf(t, err, "NewFormat(%q)", test.in)

			assert.EqualValuesf(t, got, test.want, "NewFormat(%q)", test.in)
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		_, err := layout.NewFormat("go")

		require.NotNilf(t, err, "NewFormat(%q) should fail", "go")
	})
}

// split parses src and splits the line of its first statement.
func split(t *testing.T, src string, maxWidth int) *layout.Doc {
	t.Helper()

	tree, err := vyper.Parse([]byte(src))
	require.NoErrorf(t, err, "Parse(%q)", src)
	stmt, ok := vyper.TreeFirst(tree, vyper.KindSimpleStmt|vyper.KindCompoundStmt|vyper.KindDecorator)
	require.Truef(t, ok, "Parse(%q) has no statement", src)

	lines, err := line.NewBuilder(maxWidth).Build(stmt, line.Scope{})
	require.NoErrorf(t, err, "Build(%q)", src)
	require.Truef(t, len(lines) > 0, "Build(%q) returned no lines", src)

	doc, err := layout.Split(lines[len(lines)-1], maxWidth)
	require.NoErrorf(t, err, "Split(%q, %d)", src, maxWidth)
	return doc
}
