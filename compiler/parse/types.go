package parse

import (
	"github.com/segmentio/encoding/json"
	"tlog.app/go/errors"

	"github.com/slowlang/cflat/compiler/ast"
)

func parseType(raw json.RawMessage) (ast.Type, error) {
	tag, body, err := form("type", raw)
	if err != nil {
		return nil, err
	}

	switch tag {
	case "Int":
		return ast.Int{}, nil
	case "Nil":
		return ast.Nil{}, nil
	case "Ptr":
		e, err := parseType(body)
		if err != nil {
			return nil, errors.Wrap(err, "ptr")
		}

		return ast.Ptr{Elem: e}, nil
	case "Array":
		e, err := parseType(body)
		if err != nil {
			return nil, errors.Wrap(err, "array")
		}

		return ast.Array{Elem: e}, nil
	case "Struct":
		var name string

		err = json.Unmarshal(body, &name)
		if err != nil {
			return nil, errors.Wrap(err, "struct name")
		}

		return ast.StructType{Name: name}, nil
	case "Fn":
		return parseFuncType(body)
	}

	return nil, UnknownFormError{Category: "type", Tag: tag}
}

func parseFuncType(body json.RawMessage) (ast.Type, error) {
	l, err := tuple("fn", body, 2)
	if err != nil {
		return nil, err
	}

	var ps []json.RawMessage

	err = json.Unmarshal(l[0], &ps)
	if err != nil {
		return nil, errors.Wrap(err, "fn params")
	}

	f := ast.Func{}

	for i, p := range ps {
		t, err := parseType(p)
		if err != nil {
			return nil, errors.Wrap(err, "fn param %d", i)
		}

		f.Params = append(f.Params, t)
	}

	f.Ret, err = parseType(l[1])
	if err != nil {
		return nil, errors.Wrap(err, "fn result")
	}

	return f, nil
}
