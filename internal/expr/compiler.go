package expr

// Program is a compiled expression: a reverse-polish token sequence,
// terminated by one or more statement-separator tokens, per spec.md §3.
type Program struct {
	RPN []Token
}

type funcFrame struct {
	name  string
	argc  int
	empty bool // true until the first value token since '(' or last ','
}

// Compile compiles src via shunting-yard into RPN form. It returns an
// error string; an empty string means success (matching the original's
// "compile returns error text" contract, spec.md §4.2).
func Compile(src string) (*Program, string) {
	lex := NewLexer(src)

	var output []Token
	var opStack []Token
	var funcStack []*funcFrame

	pushOp := func(t Token) {
		opStack = append(opStack, t)
	}
	popOp := func() Token {
		t := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		return t
	}
	topOp := func() (Token, bool) {
		if len(opStack) == 0 {
			return Token{}, false
		}
		return opStack[len(opStack)-1], true
	}
	markValueSeen := func() {
		if len(funcStack) > 0 {
			funcStack[len(funcStack)-1].empty = false
		}
	}

	for {
		tok := lex.Next()
		if tok.Kind == KindError {
			return nil, tok.Val
		}
		if tok.Kind == KindDone {
			break
		}

		switch tok.Kind {
		case KindNum, KindStr:
			output = append(output, tok)
			markValueSeen()

		case KindVar:
			output = append(output, Token{Kind: KindStr, Val: tok.Val})
			output = append(output, Token{Kind: KindOp, Val: "readvar", Prec: PrecVarRead})
			markValueSeen()

		case KindFunc:
			funcStack = append(funcStack, &funcFrame{name: tok.Val, empty: true})
			pushOp(Token{Kind: KindOp, Val: "callmarker:" + tok.Val, Prec: PrecCallMarker})

		case KindOp:
			switch tok.Val {
			case "(":
				pushOp(tok)

			case ")":
				for {
					top, ok := topOp()
					if !ok {
						return nil, "mismatched parentheses"
					}
					if top.Val == "(" {
						popOp()
						break
					}
					output = append(output, popOp())
				}
				if top, ok := topOp(); ok && len(top.Val) > 11 && top.Val[:11] == "callmarker:" {
					popOp()
					frame := funcStack[len(funcStack)-1]
					funcStack = funcStack[:len(funcStack)-1]
					argc := frame.argc
					if !frame.empty {
						argc++
					}
					// argc rides in Prec: function tokens are never
					// compared by precedence, so this field is free.
					output = append(output, Token{Kind: KindFunc, Val: frame.name, Prec: argc})
				}
				markValueSeen()

			case ",":
				for {
					top, ok := topOp()
					if !ok {
						return nil, "comma outside function call"
					}
					if top.Val == "(" {
						break
					}
					output = append(output, popOp())
				}
				if len(funcStack) == 0 {
					return nil, "comma outside function call"
				}
				frame := funcStack[len(funcStack)-1]
				frame.argc++
				frame.empty = true

			case ";":
				for {
					top, ok := topOp()
					if !ok {
						break
					}
					output = append(output, popOp())
				}
				output = append(output, tok)

			case "u-":
				for {
					top, ok := topOp()
					if !ok || top.Val == "(" || top.Prec < tok.Prec {
						break
					}
					output = append(output, popOp())
				}
				pushOp(tok)

			default: // binary operator
				for {
					top, ok := topOp()
					if !ok || top.Val == "(" {
						break
					}
					if len(top.Val) > 11 && top.Val[:11] == "callmarker:" {
						break
					}
					if top.Prec < tok.Prec {
						break
					}
					output = append(output, popOp())
				}
				pushOp(tok)
			}
		}
	}

	for len(opStack) > 0 {
		top := popOp()
		if top.Val == "(" {
			return nil, "mismatched parentheses"
		}
		output = append(output, top)
	}

	if len(output) == 0 || output[len(output)-1].Val != ";" {
		output = append(output, Token{Kind: KindOp, Val: ";", Prec: PrecStmtSep})
	}

	return &Program{RPN: output}, ""
}
