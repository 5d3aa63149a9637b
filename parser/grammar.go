package parser

import (
	"github.com/akashmaji946/meg/ast"
	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/lexer"
)

// block parses a sequence of statements separated by Newline until EOF
// or a closing '}', consuming the '}' if present. Leading newlines
// (including none at all) are skipped before the first statement.
func (p *Parser) block() *ast.Block {
	pos := p.peek().Position
	p.skipNewlines()

	var nodes []ast.Node
	for {
		if p.peek().Kind == lexer.EOF || p.peek().Kind == lexer.RBrace {
			break
		}
		stmt := p.statement()
		if stmt == nil {
			return nil
		}
		nodes = append(nodes, stmt)
		if _, ok := p.tryConsumeOfKind(lexer.Newline); ok {
			p.skipNewlines()
			continue
		}
		break
	}
	if p.peek().Kind == lexer.RBrace {
		p.consume()
	}
	return &ast.Block{Base: ast.NewBase(pos, false), Nodes: nodes}
}

// statement dispatches on the token one past the first token of the
// statement: Colon means declaration, Equals means assignment,
// anything else is a plain expression statement.
func (p *Parser) statement() ast.Node {
	switch p.peekAt(1).Kind {
	case lexer.Colon:
		return p.declaration()
	case lexer.Equals:
		return p.assignment()
	default:
		return p.expr(0)
	}
}

func (p *Parser) declaration() ast.Node {
	nameTok, ok := p.consumeOfKind(lexer.Identifier)
	if !ok {
		return nil
	}
	pos := nameTok.Position
	if _, ok := p.consumeOfKind(lexer.Colon); !ok {
		return nil
	}

	var typ ast.Node
	if p.peek().Kind == lexer.Equals {
		typ = &ast.Literal{Base: ast.NewBase(pos, true), Typ: ast.Unknown, Value: ""}
	} else {
		typ = p.expr(0)
		if typ == nil {
			return nil
		}
	}

	var body ast.Node
	if _, ok := p.tryConsumeOfKind(lexer.Equals); ok {
		body = p.expr(0)
		if body == nil {
			return nil
		}
	} else {
		body = &ast.Literal{Base: ast.NewBase(pos, true), Typ: ast.Undefined, Value: "undef"}
	}

	return &ast.Declaration{Base: ast.NewBase(pos, true), Name: nameTok.Lexeme, Typ: typ, Body: body}
}

func (p *Parser) assignment() ast.Node {
	nameTok, ok := p.consumeOfKind(lexer.Identifier)
	if !ok {
		return nil
	}
	pos := nameTok.Position
	if _, ok := p.consumeOfKind(lexer.Equals); !ok {
		return nil
	}
	val := p.expr(0)
	if val == nil {
		return nil
	}
	return &ast.Assignment{Base: ast.NewBase(pos, false), Name: nameTok.Lexeme, Value: val}
}

// expr is the Pratt loop: consume one token to form the left operand,
// then repeatedly fold in infix/postfix operators whose left binding
// power is at least minBP.
func (p *Parser) expr(minBP int) ast.Node {
	tok := p.consume()
	left := p.nud(tok)
	if left == nil {
		return nil
	}

	for {
		peeked := p.peek()
		var op string
		switch peeked.Kind {
		case lexer.Operator:
			op = peeked.Lexeme
		case lexer.LBracket:
			op = "["
		default:
			return left
		}

		if lbp, ok := postfixBindingPower(op); ok {
			if lbp < minBP {
				return left
			}
			p.consume()
			if op == "[" {
				idx := p.expr(0)
				if idx == nil {
					return nil
				}
				if _, ok := p.consumeOfKind(lexer.RBracket); !ok {
					return nil
				}
				left = &ast.IndexOp{Base: ast.NewBase(left.Pos(), true), Object: left, Index: idx}
			} else {
				left = &ast.PostfixOp{Base: ast.NewBase(left.Pos(), true), Op: op, Left: left}
			}
			continue
		}

		if lbp, rbp, ok := infixBindingPower(op); ok {
			if lbp < minBP {
				return left
			}
			p.consume()
			right := p.expr(rbp)
			if right == nil {
				return nil
			}
			left = &ast.InfixOp{Base: ast.NewBase(left.Pos(), false), Op: op, Left: left, Right: right}
			continue
		}

		return left
	}
}

func (p *Parser) nud(tok lexer.Token) ast.Node {
	if tok.Kind == lexer.EOF {
		p.sink.Report(diag.Parser, tok.Position, "end of file while parsing")
		return nil
	}
	fn, ok := p.nudFuncs[tok.Kind]
	if !ok {
		p.sink.Report(diag.Parser, tok.Position, "unexpected token %s %q", tok.Kind, tok.Lexeme)
		return nil
	}
	return fn(p, tok)
}

func nudIdentifier(p *Parser, tok lexer.Token) ast.Node {
	if p.peek().Kind == lexer.LParen {
		p.consume()
		var args []ast.Node
		for p.peek().Kind != lexer.RParen {
			arg := p.expr(0)
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if p.peek().Kind != lexer.Comma {
				break
			}
			p.consume()
		}
		if _, ok := p.consumeOfKind(lexer.RParen); !ok {
			return nil
		}
		return &ast.Call{Base: ast.NewBase(tok.Position, false), Name: tok.Lexeme, Args: args}
	}
	return &ast.VariableRef{Base: ast.NewBase(tok.Position, false), Name: tok.Lexeme}
}

func nudLiteral(typ ast.LiteralType) unaryParseFunction {
	return func(p *Parser, tok lexer.Token) ast.Node {
		return &ast.Literal{Base: ast.NewBase(tok.Position, true), Typ: typ, Value: tok.Lexeme}
	}
}

func nudParen(p *Parser, tok lexer.Token) ast.Node {
	inner := p.expr(0)
	if inner == nil {
		return nil
	}
	if _, ok := p.consumeOfKind(lexer.RParen); !ok {
		return nil
	}
	return inner
}

func nudPrefixOp(p *Parser, tok lexer.Token) ast.Node {
	rbp, ok := prefixBindingPower(tok.Lexeme)
	if !ok {
		p.sink.Report(diag.Parser, tok.Position, "%q is not a valid prefix operator", tok.Lexeme)
		return nil
	}
	right := p.expr(rbp)
	if right == nil {
		return nil
	}
	return &ast.PrefixOp{Base: ast.NewBase(tok.Position, false), Op: tok.Lexeme, Right: right}
}

func nudBlock(p *Parser, tok lexer.Token) ast.Node {
	p.skipNewlines()
	b := p.block()
	if b == nil {
		return nil
	}
	return b
}

func nudIf(p *Parser, tok lexer.Token) ast.Node {
	return p.ifExpression(tok.Position)
}

func (p *Parser) ifExpression(pos int) ast.Node {
	cond := p.expr(0)
	if cond == nil {
		return nil
	}
	then := p.expr(0)
	if then == nil {
		return nil
	}

	var elseNode ast.Node
	if _, ok := p.tryConsumeOfKind(lexer.Else); ok {
		elseNode = p.expr(0)
		if elseNode == nil {
			return nil
		}
	} else if _, ok := p.tryConsumeOfKind(lexer.Elif); ok {
		elseNode = p.ifExpression(p.peek().Position)
		if elseNode == nil {
			return nil
		}
	} else {
		elseNode = &ast.Literal{Base: ast.NewBase(pos, true), Typ: ast.Undefined, Value: "undef"}
	}

	return &ast.IfExpression{Base: ast.NewBase(pos, false), Condition: cond, Then: then, Else: elseNode}
}

func nudWhile(p *Parser, tok lexer.Token) ast.Node {
	cond := p.expr(0)
	if cond == nil {
		return nil
	}
	body := p.expr(0)
	if body == nil {
		return nil
	}
	return &ast.WhileExpression{Base: ast.NewBase(tok.Position, false), Condition: cond, Body: body}
}

// nudLoop desugars `loop body` into `while true body`.
func nudLoop(p *Parser, tok lexer.Token) ast.Node {
	body := p.expr(0)
	if body == nil {
		return nil
	}
	cond := &ast.Literal{Base: ast.NewBase(tok.Position, true), Typ: ast.Bool, Value: "true"}
	return &ast.WhileExpression{Base: ast.NewBase(tok.Position, false), Condition: cond, Body: body}
}

func nudFunction(p *Parser, tok lexer.Token) ast.Node {
	if _, ok := p.consumeOfKind(lexer.LParen); !ok {
		return nil
	}
	var argNames []string
	var argTypes []ast.Node
	for p.peek().Kind != lexer.RParen {
		name, ok := p.consumeIdentifier()
		if !ok {
			return nil
		}
		if _, ok := p.consumeOfKind(lexer.Colon); !ok {
			return nil
		}
		typ := p.expr(0)
		if typ == nil {
			return nil
		}
		argNames = append(argNames, name)
		argTypes = append(argTypes, typ)
		if p.peek().Kind != lexer.Comma {
			break
		}
		p.consume()
	}
	if _, ok := p.consumeOfKind(lexer.RParen); !ok {
		return nil
	}
	retType := p.expr(0)
	if retType == nil {
		return nil
	}
	body := p.expr(0)
	if body == nil {
		return nil
	}
	return &ast.FunctionExpression{
		Base:     ast.NewBase(tok.Position, false),
		ArgNames: argNames,
		ArgTypes: argTypes,
		RetTypes: []ast.Node{retType},
		Body:     body,
	}
}
