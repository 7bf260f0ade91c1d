package parse

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/segmentio/encoding/json"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/cflat/compiler/ast"
)

type (
	// UnknownFormError is returned for a document node
	// that matches none of the forms of its category.
	UnknownFormError struct {
		Category string
		Tag      string
		Keys     []string
	}

	program struct {
		Structs   []structDef `json:"structs"`
		Externs   []extern    `json:"externs"`
		Functions []funcDef   `json:"functions"`
	}

	decl struct {
		Name string          `json:"name"`
		Type json.RawMessage `json:"typ"`
	}

	structDef struct {
		Name   string `json:"name"`
		Fields []decl `json:"fields"`
	}

	extern struct {
		Name   string            `json:"name"`
		Params []json.RawMessage `json:"prms"`
		Ret    json.RawMessage   `json:"rettyp"`
	}

	funcDef struct {
		Name   string            `json:"name"`
		Params []decl            `json:"prms"`
		Ret    json.RawMessage   `json:"rettyp"`
		Locals []decl            `json:"locals"`
		Stmts  []json.RawMessage `json:"stmts"`
	}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(data), "name", name)

	return Parse(ctx, data)
}

// Parse decodes a program document.
func Parse(ctx context.Context, text []byte) (x *ast.Program, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "size", len(text))
	defer tr.Finish("err", &err)

	var doc program

	err = json.Unmarshal(text, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "decode document")
	}

	x = &ast.Program{}

	for _, d := range doc.Structs {
		s, err := parseStruct(d)
		if err != nil {
			return nil, errors.Wrap(err, "struct %v", d.Name)
		}

		x.Structs = append(x.Structs, s)
	}

	for _, d := range doc.Externs {
		e, err := parseExtern(d)
		if err != nil {
			return nil, errors.Wrap(err, "extern %v", d.Name)
		}

		x.Externs = append(x.Externs, e)
	}

	for _, d := range doc.Functions {
		f, err := parseFunc(d)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", d.Name)
		}

		x.Functions = append(x.Functions, f)
	}

	tr.Printw("parsed", "structs", len(x.Structs), "externs", len(x.Externs), "functions", len(x.Functions))

	return x, nil
}

func parseStruct(d structDef) (_ *ast.StructDef, err error) {
	s := &ast.StructDef{Name: d.Name}

	s.Fields, err = parseDecls(d.Fields)
	if err != nil {
		return nil, errors.Wrap(err, "fields")
	}

	return s, nil
}

func parseExtern(d extern) (_ *ast.Extern, err error) {
	e := &ast.Extern{Name: d.Name}

	for i, p := range d.Params {
		t, err := parseType(p)
		if err != nil {
			return nil, errors.Wrap(err, "param %d", i)
		}

		e.Params = append(e.Params, t)
	}

	e.Ret, err = parseType(d.Ret)
	if err != nil {
		return nil, errors.Wrap(err, "return type")
	}

	return e, nil
}

func parseFunc(d funcDef) (_ *ast.FuncDef, err error) {
	f := &ast.FuncDef{Name: d.Name}

	f.Params, err = parseDecls(d.Params)
	if err != nil {
		return nil, errors.Wrap(err, "params")
	}

	f.Ret, err = parseType(d.Ret)
	if err != nil {
		return nil, errors.Wrap(err, "return type")
	}

	f.Locals, err = parseDecls(d.Locals)
	if err != nil {
		return nil, errors.Wrap(err, "locals")
	}

	f.Body, err = parseStmts(d.Stmts)
	if err != nil {
		return nil, err
	}

	return f, nil
}

func parseDecls(ds []decl) (r []ast.Decl, err error) {
	for _, d := range ds {
		t, err := parseType(d.Type)
		if err != nil {
			return nil, errors.Wrap(err, "%v", d.Name)
		}

		r = append(r, ast.Decl{Name: d.Name, Type: t})
	}

	return r, nil
}

// form splits a node into its tag and body.
// A node is either a bare string tag or an object with exactly one key.
func form(cat string, raw json.RawMessage) (tag string, body json.RawMessage, err error) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))

	if len(raw) != 0 && raw[0] == '"' {
		err = json.Unmarshal(raw, &tag)
		if err != nil {
			return "", nil, errors.Wrap(err, "%v", cat)
		}

		return tag, nil, nil
	}

	if len(raw) == 0 || raw[0] != '{' {
		return "", nil, UnknownFormError{Category: cat, Tag: abbrev(raw)}
	}

	var m map[string]json.RawMessage

	err = json.Unmarshal(raw, &m)
	if err != nil {
		return "", nil, errors.Wrap(err, "%v", cat)
	}

	if len(m) != 1 {
		return "", nil, UnknownFormError{Category: cat, Keys: keys(m)}
	}

	for k, v := range m {
		return k, v, nil
	}

	panic("unreachable")
}

// tuple decodes a fixed size array body.
func tuple(cat string, body json.RawMessage, n int) ([]json.RawMessage, error) {
	var l []json.RawMessage

	err := json.Unmarshal(body, &l)
	if err != nil {
		return nil, errors.Wrap(err, "%v", cat)
	}

	if len(l) != n {
		return nil, errors.New("%v: expected %d elements, got %d", cat, n, len(l))
	}

	return l, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))

	return s == "" || s == "null"
}

func isArray(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))

	return s != "" && s[0] == '['
}

func keys(m map[string]json.RawMessage) []string {
	r := make([]string, 0, len(m))

	for k := range m {
		r = append(r, k)
	}

	sort.Strings(r)

	return r
}

func abbrev(raw json.RawMessage) string {
	const limit = 20

	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}

	return string(raw)
}

func (e UnknownFormError) Error() string {
	if e.Keys != nil {
		return fmt.Sprintf("unknown %s form: keys %v", e.Category, e.Keys)
	}

	return fmt.Sprintf("unknown %s form: %s", e.Category, e.Tag)
}
