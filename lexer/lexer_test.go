package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akashmaji946/meg/diag"
)

type tokenCase struct {
	Input    string
	Expected []Token
}

func run(t *testing.T, cases []tokenCase) {
	t.Helper()
	for _, c := range cases {
		sink := diag.New()
		got := New(c.Input, sink).ConsumeTokens()
		require := assert.New(t)
		require.Equal(len(c.Expected), len(got), "input %q", c.Input)
		for i, exp := range c.Expected {
			if i >= len(got) {
				break
			}
			require.Equal(exp.Kind, got[i].Kind, "token %d of %q", i, c.Input)
			require.Equal(exp.Lexeme, got[i].Lexeme, "token %d of %q", i, c.Input)
		}
	}
}

func TestConsumeTokens_Basics(t *testing.T) {
	run(t, []tokenCase{
		{
			Input: `x: = 1 + 2 * 3`,
			Expected: []Token{
				NewToken(Identifier, "x"),
				NewToken(Colon, ":"),
				NewToken(Equals, "="),
				NewToken(IntegerLiteral, "1"),
				NewToken(Operator, "+"),
				NewToken(IntegerLiteral, "2"),
				NewToken(Operator, "*"),
				NewToken(IntegerLiteral, "3"),
				NewToken(EOF, ""),
			},
		},
		{
			Input: `fn if elif else while loop notakeyword`,
			Expected: []Token{
				NewToken(Fn, "fn"),
				NewToken(If, "if"),
				NewToken(Elif, "elif"),
				NewToken(Else, "else"),
				NewToken(While, "while"),
				NewToken(Loop, "loop"),
				NewToken(Identifier, "notakeyword"),
				NewToken(EOF, ""),
			},
		},
		{
			Input: `5 // 2 -5 // 2`,
			Expected: []Token{
				NewToken(IntegerLiteral, "5"),
				NewToken(Operator, "//"),
				NewToken(IntegerLiteral, "2"),
				NewToken(Operator, "-"),
				NewToken(IntegerLiteral, "5"),
				NewToken(Operator, "//"),
				NewToken(IntegerLiteral, "2"),
				NewToken(EOF, ""),
			},
		},
		{
			Input: `1 == 1 != 2 <= 3 >= 4`,
			Expected: []Token{
				NewToken(IntegerLiteral, "1"),
				NewToken(Operator, "=="),
				NewToken(IntegerLiteral, "1"),
				NewToken(Operator, "!="),
				NewToken(IntegerLiteral, "2"),
				NewToken(Operator, "<="),
				NewToken(IntegerLiteral, "3"),
				NewToken(Operator, ">="),
				NewToken(IntegerLiteral, "4"),
				NewToken(EOF, ""),
			},
		},
		{
			Input: "a\n\n\nb",
			Expected: []Token{
				NewToken(Identifier, "a"),
				NewToken(Newline, "\n"),
				NewToken(Identifier, "b"),
				NewToken(EOF, ""),
			},
		},
	})
}

func TestConsumeTokens_FloatDoubleDot(t *testing.T) {
	sink := diag.New()
	got := New("1.2.3", sink).ConsumeTokens()
	want := []Token{
		NewToken(FloatLiteral, "1.2"),
		NewToken(Operator, "."),
		NewToken(IntegerLiteral, "3"),
		NewToken(EOF, ""),
	}
	assert.Equal(t, len(want), len(got))
	for i, exp := range want {
		assert.Equal(t, exp.Kind, got[i].Kind)
		assert.Equal(t, exp.Lexeme, got[i].Lexeme)
	}
}

// Scenario 1: a string literal followed by an identifier, with exact
// byte-offset positions.
func TestConsumeTokens_StringLiteralPositions(t *testing.T) {
	sink := diag.New()
	got := New(`"hello world" more_stuff`, sink).ConsumeTokens()
	require := assert.New(t)
	require.Len(got, 3)
	require.Equal(StringLiteral, got[0].Kind)
	require.Equal("hello world", got[0].Lexeme)
	require.Equal(0, got[0].Position)
	require.Equal(Identifier, got[1].Kind)
	require.Equal("more_stuff", got[1].Lexeme)
	require.Equal(14, got[1].Position)
	require.Equal(EOF, got[2].Kind)
	require.Equal(24, got[2].Position)
	require.False(sink.HasErrors())
}

// Scenario 2: an unterminated string literal reports one diagnostic
// and still emits a trailing EOF at the same position.
func TestConsumeTokens_UnterminatedStringLiteral(t *testing.T) {
	sink := diag.New()
	got := New(`"hello world more_stuff`, sink).ConsumeTokens()
	require := assert.New(t)
	require.Len(got, 1)
	require.Equal(EOF, got[0].Kind)
	require.Equal(23, got[0].Position)
	require.Equal(1, sink.Len())
	d := sink.All()[0]
	require.Equal(diag.Lexer, d.Stage)
	require.Equal(23, d.Position)
	require.Contains(d.Message, "hello world more_stuff")
}

func TestConsumeTokens_EmptyInput(t *testing.T) {
	sink := diag.New()
	got := New("", sink).ConsumeTokens()
	require := assert.New(t)
	require.Len(got, 1)
	require.Equal(EOF, got[0].Kind)
}

func TestConsumeTokens_StringEscapes(t *testing.T) {
	sink := diag.New()
	got := New(`"hello\nworld"`, sink).ConsumeTokens()
	require := assert.New(t)
	require.Len(got, 2)
	require.Equal("hello\nworld", got[0].Lexeme)
}
