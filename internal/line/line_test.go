package line_test

import (
	"errors"
	"testing"

	"github.com/teleivo/assertive/assert"
	"github.com/teleivo/assertive/require"
	"github.com/teleivo/vyper"
	"github.com/teleivo/vyper/internal/comment"
	"github.com/teleivo/vyper/internal/line"
	"github.com/teleivo/vyper/token"
)

func TestBuild(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"Assignment": {
			in:   "x=-1\n",
			want: "x = -1",
		},
		"Call": {
			in:   "foo( a , b )\n",
			want: "foo(a, b)",
		},
		"KeywordArguments": {
			in:   "log Transfer(sender = msg.sender, value = amount)\n",
			want: "log Transfer(sender=msg.sender, value=amount)",
		},
		"Import": {
			in:   "from  vyper.interfaces  import  ERC20\n",
			want: "from vyper.interfaces import ERC20",
		},
		"RelativeImport": {
			in:   "from . import foo\n",
			want: "from . import foo",
		},
		"Decorator": {
			in:   "@external\n",
			want: "@external",
		},
		"UnaryOperators": {
			in:   "x = ~a + -b\n",
			want: "x = ~a + -b",
		},
		"UnaryOperatorAfterPower": {
			in:   "a = b ** -c\n",
			want: "a = b ** -c",
		},
		"ParameterDefault": {
			in:   "def f(a: uint256 = 1):\n    pass\n",
			want: "def f(a: uint256 = 1):",
		},
		"Subscript": {
			in:   "x: DynArray[uint256 , 3]\n",
			want: "x: DynArray[uint256, 3]",
		},
		"Assert": {
			in:   "assert x==1,'msg'\n",
			want: `assert x == 1, "msg"`,
		},
		"StringPrefixIsLowercased": {
			in:   "x: Bytes[1] = B'\\x01'\n",
			want: `x: Bytes[1] = b"\x01"`,
		},
		"RedundantParenthesesOfConditionAreHidden": {
			in:   "if (a == b):\n    pass\n",
			want: "if a == b:",
		},
		"ParenthesesOfTupleConditionStay": {
			in:   "if (a, b) == c:\n    pass\n",
			want: "if (a, b) == c:",
		},
		"TrailingComment": {
			in:   "x = 1 #comment\n",
			want: "x = 1  # comment",
		},
		"CommentsOfCollapsedCall": {
			in: `self.b(0, # amount
    msg.sender, # sender
    True # refund
)
`,
			want: "self.b(0, msg.sender, True)  # amount  # sender  # refund",
		},
		"ForLoop": {
			in:   "for i in range(10):\n    pass\n",
			want: "for i in range(10):",
		},
		"NotIn": {
			in:   "x = a not in b\n",
			want: "x = a not in b",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			lines := build(t, test.in, line.Scope{})

			got := lines[len(lines)-1].String()

			assert.EqualValuesf(t, got, test.want, "Build(%q)", test.in)
		})
	}

	t.Run("CommentLines", func(t *testing.T) {
		in := "# first\n\n# second\nx = 1\n"

		lines := build(t, in, line.Scope{})

		require.EqualValuesf(t, len(lines), 3, "Build(%q)", in)
		assert.EqualValuesf(t, lines[0].String(), "# first", "Build(%q)", in)
		assert.Truef(t, lines[0].IsComment(), "Build(%q) first line should be a comment", in)
		assert.EqualValuesf(t, lines[1].String(), "# second", "Build(%q)", in)
		assert.EqualValuesf(t, lines[1].Newlines, 1, "Build(%q) blank lines before second comment", in)
		assert.EqualValuesf(t, lines[2].String(), "x = 1", "Build(%q)", in)
	})

	t.Run("Depth", func(t *testing.T) {
		in := "x = 1\n"

		lines := build(t, in, line.Scope{Depth: 2})

		assert.EqualValuesf(t, lines[0].String(), "        x = 1", "Build(%q)", in)
	})

	t.Run("Docstring", func(t *testing.T) {
		in := "'''   Transfer tokens.   '''\n"

		lines := build(t, in, line.Scope{Depth: 1, Docstring: true})

		assert.EqualValuesf(t, lines[0].String(), `    """Transfer tokens."""`, "Build(%q)", in)
		assert.Truef(t, lines[0].IsComment(), "Build(%q) docstring line should never be split", in)
	})

	t.Run("ModuleDocstringOnlyNormalizesQuotes", func(t *testing.T) {
		in := "'''   Token contract.   '''\n"

		lines := build(t, in, line.Scope{Docstring: true})

		assert.EqualValuesf(t, lines[0].String(), `"""   Token contract.   """`, "Build(%q)", in)
	})
}

func TestBuildUnsupported(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"Semicolon": {
			in:   "x = 1; y = 2\n",
			want: "statements separated by ';'",
		},
		"BackslashContinuation": {
			in:   "x = 1 + \\\n    2\n",
			want: "backslash line continuation",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tree, err := vyper.Parse([]byte(test.in))
			require.NoErrorf(t, err, "Parse(%q)", test.in)
			stmt, ok := vyper.TreeFirst(tree, vyper.KindSimpleStmt)
			require.Truef(t, ok, "Parse(%q) has no statement", test.in)

			_, err = line.NewBuilder(80).Build(stmt, line.Scope{})

			var unsupported *line.UnsupportedError
			require.Truef(t, errors.As(err, &unsupported), "Build(%q) want UnsupportedError, got %v", test.in, err)
			assert.EqualValuesf(t, unsupported.Construct, test.want, "Build(%q)", test.in)
		})
	}
}

func TestInvisibleParens(t *testing.T) {
	tests := map[string]struct {
		in   string
		want int
	}{
		"RightHandSideOfAssignment": {
			in:   "x = a + b\n",
			want: 2,
		},
		"SingleTokenIsNotWrapped": {
			in:   "x = a\n",
			want: 0,
		},
		"TupleOnLeftHandSide": {
			in:   "a, b = c, d\n",
			want: 4,
		},
		"AugmentedAssignment": {
			in:   "x += a * b\n",
			want: 2,
		},
		"AssertOperands": {
			in:   "assert a == b, \"not equal\"\n",
			want: 2,
		},
		"Condition": {
			in:   "if a and b:\n    pass\n",
			want: 2,
		},
		"ExpressionStatement": {
			in:   "self.foo(a + b)\n",
			want: 0,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			lines := build(t, test.in, line.Scope{})

			got := lines[len(lines)-1].InvisibleParens()

			assert.EqualValuesf(t, len(got), test.want, "InvisibleParens(%q)", test.in)
		})
	}
}

func TestDelimiters(t *testing.T) {
	tests := map[string]struct {
		in        string
		want      line.Priority
		wantCount int
	}{
		"Comma": {
			in:        "a, b, c",
			want:      line.CommaPriority,
			wantCount: 2,
		},
		"Ternary": {
			in:        "a if b else c",
			want:      line.TernaryPriority,
			wantCount: 2,
		},
		"Logic": {
			in:        "a and b or c",
			want:      line.LogicPriority,
			wantCount: 2,
		},
		"Comparator": {
			in:        "a < b",
			want:      line.ComparatorPriority,
			wantCount: 1,
		},
		"NotIn": {
			in:        "a not in b",
			want:      line.ComparatorPriority,
			wantCount: 1,
		},
		"UnaryMinusIsNoDelimiter": {
			in:        "-a + b",
			want:      line.ArithPriority,
			wantCount: 1,
		},
		"ImplicitStringConcatenation": {
			in:        `"a" "b"`,
			want:      line.StringPriority,
			wantCount: 1,
		},
		"AttributeAccessAfterCall": {
			in:        "a.b(c).d",
			want:      line.DotPriority,
			wantCount: 1,
		},
		"AttributeAccessAfterName": {
			in:        "a.b.c",
			want:      0,
			wantCount: 0,
		},
		"LowestPriorityGoverns": {
			in:        "a + b, c * d",
			want:      line.CommaPriority,
			wantCount: 1,
		},
		"OnlyDelimitersAtDepthZeroCount": {
			in:        "foo(a, b or c) + d",
			want:      line.ArithPriority,
			wantCount: 1,
		},
		"NestedBracketsHideLowerPriorities": {
			in:        "[a, b] * (c or d)",
			want:      line.TermPriority,
			wantCount: 1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			l := body(t, test.in)

			got := l.MaxPriority()

			assert.EqualValuesf(t, got, test.want, "MaxPriority(%q)", test.in)
			if test.want > 0 {
				assert.EqualValuesf(t, l.DelimiterCount(test.want), test.wantCount, "DelimiterCount(%q)", test.in)
			}
		})
	}

	t.Run("InvisibleParenthesesNestTheRightHandSide", func(t *testing.T) {
		in := "x = a or b\n"
		lines := build(t, in, line.Scope{})

		got := lines[0].MaxPriority()

		assert.EqualValuesf(t, got, line.Priority(0), "MaxPriority(%q)", in)
	})

	t.Run("ForLoopTargetIsNoComparison", func(t *testing.T) {
		in := "for i in range(10):\n    pass\n"
		lines := build(t, in, line.Scope{})

		got := lines[0].MaxPriority()

		assert.EqualValuesf(t, got, line.Priority(0), "MaxPriority(%q)", in)
	})
}

func TestMagicTrailingComma(t *testing.T) {
	tests := map[string]struct {
		in   string
		want bool
	}{
		"Call": {
			in:   "foo(a,)\n",
			want: true,
		},
		"List": {
			in:   "x: DynArray[uint256, 3] = [1,]\n",
			want: true,
		},
		"OneElementTuple": {
			in:   "x = (1,)\n",
			want: false,
		},
		"Tuple": {
			in:   "x = (1, 2,)\n",
			want: true,
		},
		"NoTrailingComma": {
			in:   "foo(a, b)\n",
			want: false,
		},
		"Import": {
			in:   "from a import (b,)\n",
			want: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			lines := build(t, test.in, line.Scope{})

			got := lines[len(lines)-1].MagicTrailingComma >= 0

			assert.EqualValuesf(t, got, test.want, "MagicTrailingComma(%q)", test.in)
		})
	}
}

func TestPredicates(t *testing.T) {
	t.Run("IsDef", func(t *testing.T) {
		tests := map[string]struct {
			in    string
			scope line.Scope
			want  bool
		}{
			"Function":          {in: "def f():\n    pass\n", want: true},
			"Struct":            {in: "struct Point:\n    x: int128\n", want: true},
			"Event":             {in: "event Transfer:\n    value: uint256\n", want: true},
			"FunctionSignature": {in: "def f(): view\n", scope: line.Scope{Depth: 1, Interface: true}, want: false},
			"Assignment":        {in: "x = 1\n", want: false},
		}
		for name, test := range tests {
			t.Run(name, func(t *testing.T) {
				lines := build(t, test.in, test.scope)

				assert.EqualValuesf(t, lines[0].IsDef(), test.want, "IsDef(%q)", test.in)
			})
		}
	})

	t.Run("IsDecorator", func(t *testing.T) {
		lines := build(t, "@external\n", line.Scope{})

		assert.Truef(t, lines[0].IsDecorator(), "IsDecorator(%q)", "@external")
	})

	t.Run("IsImport", func(t *testing.T) {
		for _, in := range []string{"import foo\n", "from foo import bar\n"} {
			lines := build(t, in, line.Scope{})

			assert.Truef(t, lines[0].IsImport(), "IsImport(%q)", in)
		}
	})

	t.Run("IsFlowControl", func(t *testing.T) {
		for _, in := range []string{"return 1\n", "raise\n", "break\n", "continue\n"} {
			lines := build(t, in, line.Scope{})

			assert.Truef(t, lines[0].IsFlowControl(), "IsFlowControl(%q)", in)
		}
	})

	t.Run("IsPragma", func(t *testing.T) {
		l := line.Comment(0, comment.Comment{Value: "# @version ^0.3.10"})

		assert.Truef(t, l.IsPragma(), "IsPragma(%q)", l.String())
	})
}

func TestFits(t *testing.T) {
	t.Run("Width", func(t *testing.T) {
		l := line.New(0, false)
		require.NoErrorf(t, l.Append(line.Leaf{Kind: token.Name, Value: "abcde"}, false), "Append")

		assert.Truef(t, l.Fits(5), "Fits(5) of %q", l.String())
		assert.Falsef(t, l.Fits(4), "Fits(4) of %q", l.String())
	})

	t.Run("TrailingCommentsCount", func(t *testing.T) {
		l := line.New(0, false)
		require.NoErrorf(t, l.Append(line.Leaf{Kind: token.Name, Value: "a"}, false), "Append")
		l.AppendComment(comment.Comment{Value: "# c"})

		assert.EqualValuesf(t, l.String(), "a  # c", "String()")
		assert.Falsef(t, l.Fits(5), "Fits(5) of %q", l.String())
	})

	t.Run("StandaloneCommentNeverFits", func(t *testing.T) {
		in := "foo(a,\n    # standalone\n    b)\n"
		lines := build(t, in, line.Scope{})

		assert.Falsef(t, lines[0].Fits(80), "Fits(80) of %q", in)
	})

	t.Run("WideCharacters", func(t *testing.T) {
		l := line.New(0, false)
		require.NoErrorf(t, l.Append(line.Leaf{Kind: token.String, Value: `"日本"`}, false), "Append")

		assert.EqualValuesf(t, l.Width(), 6, "Width() of %q", l.String())
	})
}

func TestAppendMismatch(t *testing.T) {
	t.Run("ClosingWithoutOpening", func(t *testing.T) {
		l := line.New(0, false)

		err := l.Append(line.Leaf{Kind: token.RightParen, Value: ")"}, false)

		var mismatch *line.MismatchError
		require.Truef(t, errors.As(err, &mismatch), "Append(')') want MismatchError, got %v", err)
		assert.EqualValuesf(t, mismatch.Opening, token.Kind(0), "Append(')')")
	})

	t.Run("ClosingDoesNotMatchOpening", func(t *testing.T) {
		l := line.New(0, false)
		require.NoErrorf(t, l.Append(line.Leaf{Kind: token.LeftParen, Value: "("}, false), "Append('(')")

		err := l.Append(line.Leaf{Kind: token.RightBracket, Value: "]"}, false)

		var mismatch *line.MismatchError
		require.Truef(t, errors.As(err, &mismatch), "Append(']') want MismatchError, got %v", err)
		assert.EqualValuesf(t, mismatch.Opening, token.LeftParen, "Append(']')")
	})
}

func TestClone(t *testing.T) {
	lines := build(t, "x = foo(a)  # comment\n", line.Scope{})
	l := lines[0]

	c := l.Clone()
	c.Leaves[0].Value = "y"
	c.AppendComment(comment.Comment{Value: "# other"})

	assert.EqualValuesf(t, l.String(), "x = foo(a)  # comment", "original after modifying clone")
	assert.EqualValuesf(t, c.String(), "y = foo(a)  # comment  # other", "clone")
}

func build(t *testing.T, src string, scope line.Scope) []*line.Line {
	t.Helper()

	tree, err := vyper.Parse([]byte(src))
	require.NoErrorf(t, err, "Parse(%q)", src)
	stmt, ok := vyper.TreeFirst(tree, vyper.KindSimpleStmt|vyper.KindCompoundStmt|vyper.KindDecorator)
	require.Truef(t, ok, "Parse(%q) has no statement", src)

	lines, err := line.NewBuilder(80).Build(stmt, scope)
	require.NoErrorf(t, err, "Build(%q)", src)
	require.Truef(t, len(lines) > 0, "Build(%q) returned no lines", src)
	return lines
}

// body returns the expression as the content of a split bracket pair.
func body(t *testing.T, expr string) *line.Line {
	t.Helper()

	lines := build(t, expr+"\n", line.Scope{})
	l := line.New(0, true)
	for _, leaf := range lines[len(lines)-1].Leaves {
		require.NoErrorf(t, l.Append(leaf, true), "Append(%q)", leaf.Value)
	}
	return l
}
