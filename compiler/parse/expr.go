package parse

import (
	"github.com/segmentio/encoding/json"
	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
)

type (
	unOp struct {
		Op  string          `json:"op"`
		Exp json.RawMessage `json:"exp"`
	}

	binOp struct {
		Op    string          `json:"op"`
		Left  json.RawMessage `json:"left"`
		Right json.RawMessage `json:"right"`
	}

	sel struct {
		Guard json.RawMessage `json:"guard"`
		True  json.RawMessage `json:"tt"`
		False json.RawMessage `json:"ff"`
	}

	arrayAccess struct {
		Array json.RawMessage `json:"array"`
		Index json.RawMessage `json:"idx"`
	}
)

func parseExpr(raw json.RawMessage) (ast.Expr, error) {
	tag, body, err := form("expression", raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Nil":
		return ast.NilLit{}, nil
	case "Num":
		var n int64

		err = json.Unmarshal(body, &n)
		if err != nil {
			return nil, errors.Wrap(err, "num")
		}

		return ast.Num{Value: n}, nil
	case "Val":
		p, err := parsePlace(body)
		if err != nil {
			return nil, errors.Wrap(err, "val")
		}

		return ast.Val{Place: p}, nil
	case "UnOp":
		return parseUnOp(body)
	case "BinOp":
		return parseBinOp(body)
	case "Select":
		var s sel

		err = json.Unmarshal(body, &s)
		if err != nil {
			return nil, errors.Wrap(err, "select")
		}

		x := ast.Select{}

		x.Guard, err = parseExpr(s.Guard)
		if err != nil {
			return nil, errors.Wrap(err, "select: guard")
		}

		x.True, err = parseExpr(s.True)
		if err != nil {
			return nil, errors.Wrap(err, "select: tt")
		}

		x.False, err = parseExpr(s.False)
		if err != nil {
			return nil, errors.Wrap(err, "select: ff")
		}

		return x, nil
	case "Call":
		c, err := parseCall(body)
		if err != nil {
			return nil, err
		}

		return ast.CallExpr{Call: c}, nil
	case "NewSingle":
		t, err := parseType(body)
		if err != nil {
			return nil, errors.Wrap(err, "new")
		}

		return ast.NewSingle{Type: t}, nil
	case "NewArray":
		l, err := tuple("new array", body, 2)
		if err != nil {
			return nil, err
		}

		t, err := parseType(l[0])
		if err != nil {
			return nil, errors.Wrap(err, "new array: type")
		}

		n, err := parseExpr(l[1])
		if err != nil {
			return nil, errors.Wrap(err, "new array: len")
		}

		return ast.NewArray{Type: t, Len: n}, nil
	}

	return nil, UnknownFormError{Category: "expression", Tag: tag}
}

// parseUnOp accepts both ["Neg", e] and {"op": "Neg", "exp": e}.
func parseUnOp(body json.RawMessage) (ast.Expr, error) {
	var u unOp

	if isArray(body) {
		l, err := tuple("unop", body, 2)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal(l[0], &u.Op)
		if err != nil {
			return nil, errors.Wrap(err, "unop: op")
		}

		u.Exp = l[1]
	} else {
		err := json.Unmarshal(body, &u)
		if err != nil {
			return nil, errors.Wrap(err, "unop")
		}
	}

	op, ok := ast.ParseUnaryOp(u.Op)
	if !ok {
		return nil, UnknownFormError{Category: "unary operator", Tag: u.Op}
	}

	x, err := parseExpr(u.Exp)
	if err != nil {
		return nil, errors.Wrap(err, "%v", op)
	}

	return ast.UnOp{Op: op, X: x}, nil
}

// parseBinOp accepts both [op, l, r] and {"op", "left", "right"}.
func parseBinOp(body json.RawMessage) (ast.Expr, error) {
	var b binOp

	if isArray(body) {
		l, err := tuple("binop", body, 3)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal(l[0], &b.Op)
		if err != nil {
			return nil, errors.Wrap(err, "binop: op")
		}

		b.Left, b.Right = l[1], l[2]
	} else {
		err := json.Unmarshal(body, &b)
		if err != nil {
			return nil, errors.Wrap(err, "binop")
		}
	}

	op, ok := ast.ParseBinaryOp(b.Op)
	if !ok {
		return nil, UnknownFormError{Category: "binary operator", Tag: b.Op}
	}

	l, err := parseExpr(b.Left)
	if err != nil {
		return nil, errors.Wrap(err, "%v: left", op)
	}

	r, err := parseExpr(b.Right)
	if err != nil {
		return nil, errors.Wrap(err, "%v: right", op)
	}

	return ast.BinOp{Op: op, Left: l, Right: r}, nil
}

// parseCall decodes [callee, [args...]].
func parseCall(body json.RawMessage) (c ast.FunCall, err error) {
	l, err := tuple("call", body, 2)
	if err != nil {
		return c, err
	}

	c.Callee, err = parseExpr(l[0])
	if err != nil {
		return c, errors.Wrap(err, "call: callee")
	}

	var args []json.RawMessage

	err = json.Unmarshal(l[1], &args)
	if err != nil {
		return c, errors.Wrap(err, "call: args")
	}

	for i, a := range args {
		x, err := parseExpr(a)
		if err != nil {
			return c, errors.Wrap(err, "call: arg %d", i)
		}

		c.Args = append(c.Args, x)
	}

	return c, nil
}

func parsePlace(raw json.RawMessage) (ast.Place, error) {
	tag, body, err := form("place", raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Id":
		var name string

		err = json.Unmarshal(body, &name)
		if err != nil {
			return nil, errors.Wrap(err, "id")
		}

		return ast.Id{Name: name}, nil
	case "Deref":
		x, err := parseExpr(body)
		if err != nil {
			return nil, errors.Wrap(err, "deref")
		}

		return ast.Deref{X: x}, nil
	case "ArrayAccess":
		var a arrayAccess

		err = json.Unmarshal(body, &a)
		if err != nil {
			return nil, errors.Wrap(err, "array access")
		}

		arr, err := parseExpr(a.Array)
		if err != nil {
			return nil, errors.Wrap(err, "array access: array")
		}

		idx, err := parseExpr(a.Index)
		if err != nil {
			return nil, errors.Wrap(err, "array access: idx")
		}

		return ast.ArrayAccess{Array: arr, Index: idx}, nil
	case "FieldAccess":
		l, err := tuple("field access", body, 2)
		if err != nil {
			return nil, err
		}

		x, err := parseExpr(l[0])
		if err != nil {
			return nil, errors.Wrap(err, "field access: ptr")
		}

		var field string

		err = json.Unmarshal(l[1], &field)
		if err != nil {
			return nil, errors.Wrap(err, "field access: field")
		}

		return ast.FieldAccess{Ptr: x, Field: field}, nil
	}

	return nil, UnknownFormError{Category: "place", Tag: tag}
}
