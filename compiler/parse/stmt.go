package parse

import (
	"github.com/segmentio/encoding/json"
	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
)

type (
	ifStmt struct {
		Guard json.RawMessage   `json:"guard"`
		Then  []json.RawMessage `json:"tt"`
		Else  []json.RawMessage `json:"ff"`
	}
)

func parseStmts(l []json.RawMessage) (s ast.Stmts, err error) {
	for i, raw := range l {
		x, err := parseStmt(raw)
		if err != nil {
			return s, errors.Wrap(err, "stmt %d", i)
		}

		s.List = append(s.List, x)
	}

	return s, nil
}

func parseBlock(body json.RawMessage) (ast.Stmts, error) {
	var l []json.RawMessage

	err := json.Unmarshal(body, &l)
	if err != nil {
		return ast.Stmts{}, errors.Wrap(err, "block")
	}

	return parseStmts(l)
}

func parseStmt(raw json.RawMessage) (ast.Stmt, error) {
	tag, body, err := form("statement", raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Break":
		return ast.Break{}, nil
	case "Continue":
		return ast.Continue{}, nil
	case "Assign":
		l, err := tuple("assign", body, 2)
		if err != nil {
			return nil, err
		}

		p, err := parsePlace(l[0])
		if err != nil {
			return nil, errors.Wrap(err, "assign: place")
		}

		x, err := parseExpr(l[1])
		if err != nil {
			return nil, errors.Wrap(err, "assign: value")
		}

		return ast.Assign{Place: p, Value: x}, nil
	case "Call":
		c, err := parseCall(body)
		if err != nil {
			return nil, err
		}

		return ast.CallStmt{Call: c}, nil
	case "If":
		var s ifStmt

		err = json.Unmarshal(body, &s)
		if err != nil {
			return nil, errors.Wrap(err, "if")
		}

		x := ast.If{}

		x.Guard, err = parseExpr(s.Guard)
		if err != nil {
			return nil, errors.Wrap(err, "if: guard")
		}

		x.Then, err = parseStmts(s.Then)
		if err != nil {
			return nil, errors.Wrap(err, "if: tt")
		}

		if len(s.Else) != 0 {
			x.Else, err = parseStmts(s.Else)
			if err != nil {
				return nil, errors.Wrap(err, "if: ff")
			}
		}

		return x, nil
	case "While":
		l, err := tuple("while", body, 2)
		if err != nil {
			return nil, err
		}

		g, err := parseExpr(l[0])
		if err != nil {
			return nil, errors.Wrap(err, "while: guard")
		}

		b, err := parseBlock(l[1])
		if err != nil {
			return nil, errors.Wrap(err, "while: body")
		}

		return ast.While{Guard: g, Body: b}, nil
	case "Return":
		if isNull(body) {
			return ast.Return{}, nil
		}

		x, err := parseExpr(body)
		if err != nil {
			return nil, errors.Wrap(err, "return")
		}

		return ast.Return{Value: x}, nil
	case "Stmts":
		return parseBlock(body)
	}

	return nil, UnknownFormError{Category: "statement", Tag: tag}
}
