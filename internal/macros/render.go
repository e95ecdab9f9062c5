package macros

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"text/template"
)

var templates = template.Must(template.New("macros").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(templateSource))

const templateSource = `
{{- define "equal" -}}
// {{.Method}} reports whether {{.Recv}} and {{.Other}} hold equal field values.
{{if .Line}}{{.Line}}
{{end -}}
func ({{.Recv}} *{{.Type}}) {{.Method}}({{.Other}} *{{.Type}}) bool {
	if {{.Recv}} == nil || {{.Other}} == nil {
		return {{.Recv}} == {{.Other}}
	}
{{if .Fields}}
	return {{range $i, $f := .Fields}}{{if $i}} &&
		{{end}}{{if $f.Deep}}{{$.Reflect}}.DeepEqual({{$.Recv}}.{{$f.Name}}, {{$.Other}}.{{$f.Name}}){{else}}{{$.Recv}}.{{$f.Name}} == {{$.Other}}.{{$f.Name}}{{end}}{{end}}
{{- else}}
	return true
{{- end}}
}
{{end}}

{{- define "roundtrip" -}}
	{{.Buf}}, {{.Err}} := {{.Marshal}}({{.Obj}})
	if {{.Err}} != nil {
		{{.T}}.Fatalf("marshal %#v: %v", {{.Obj}}, {{.Err}})
	}
	var {{.Got}} {{.Type}}
	if {{.Err}} = {{.Unmarshal}}({{.Buf}}, &{{.Got}}); {{.Err}} != nil {
		{{.T}}.Fatalf("unmarshal %s: %v", {{.Buf}}, {{.Err}})
	}
	if !{{.Reflect}}.DeepEqual({{.Obj}}, {{.Got}}) {
		{{.T}}.Errorf("{{.Codec}} round trip mismatch:\nwant %#v\ngot  %#v", {{.Obj}}, {{.Got}})
	}
{{- end}}

{{- define "sertest" -}}
{{if .Line}}{{.Line}}
{{end -}}
func {{.Name}}({{.T}} *{{.Testing}}.T) {
{{- if .Cases}}
	for _, {{.Case}} := range []struct {
		name  string
		value {{.Type}}
	}{
{{- range .Cases}}
		{ {{quote .}}, {{.}} },
{{- end}}
	} {
		{{.T}}.Run({{.Case}}.name, func({{.T}} *{{.Testing}}.T) {
			{{.Obj}} := {{.Case}}.value
			{{template "roundtrip" .}}
		})
	}
{{- else}}
{{- if eq .Kind "func"}}
	{{.Obj}} := {{.Func}}()
{{- else if eq .Kind "random"}}
	{{.Rng}} := {{.Rand}}.New({{.Rand}}.NewPCG({{.Seed}}, {{.Seed}}))
	{{.Obj}} := {{.Func}}({{.Rng}})
{{- else if eq .Kind "arbitrary"}}
	{{.Val}}, {{.OK}} := {{.Quick}}.Value({{.Reflect}}.TypeFor[{{.Type}}](), {{.Rand}}.New({{.Rand}}.NewSource({{.SeedInt64}})))
	if !{{.OK}} {
		{{.T}}.Fatal({{quote (printf "cannot generate a value of %s" .Type)}})
	}
	{{.Obj}} := {{.Val}}.Interface().({{.Type}})
{{- else}}
	var {{.Obj}} {{.Type}}
{{- end}}
	{{template "roundtrip" .}}
{{- end}}
}
{{end}}

{{- define "generictests" -}}
{{if .Line}}{{.Line}}
{{end -}}
func {{.Name}}({{.T}} *{{.Testing}}.T) {
{{- if .Parallel}}
	{{.T}}.Parallel()
{{- end}}
{{- if .Skip}}
	{{.T}}.Skip({{.Skip}})
{{- end}}
{{- if .Panics}}
	defer func() {
		if {{.R}} := recover(); {{.R}} == nil {
			{{.T}}.Error({{.Panics}})
		}
	}()
{{- end}}
	{{.Call}}({{.T}})
}
{{end}}
`

// synthesize renders every plan item and checks that the result is valid Go.
func (ex *expansion) synthesize(plan *Plan) ([]*Fragment, error) {
	frags := make([]*Fragment, 0, len(plan.Items))
	for _, it := range plan.Items {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, it.tmpl, it.data); err != nil {
			return nil, ex.defect(fmt.Errorf("render %s: %w", it.Name, err))
		}

		code, err := ex.checkFragment(it.Imports, buf.Bytes())
		if err != nil {
			return nil, ex.defect(fmt.Errorf("synthesized %s is malformed: %w", it.Name, err))
		}
		it.Code = code

		frags = append(frags, &Fragment{
			Target:  it.Target,
			Name:    it.Name,
			Imports: it.Imports,
			Code:    code,
		})
	}

	return frags, nil
}

// checkFragment parses the declaration as a file of the site's package with
// its imports and returns the formatted declaration.
func (ex *expansion) checkFragment(imports []Import, code []byte) (string, error) {
	var src strings.Builder
	src.WriteString("package " + ex.site.Package + "\n\n")
	for _, imp := range imports {
		fmt.Fprintf(&src, "import %s %s\n", imp.Alias, strconv.Quote(imp.Path))
	}
	src.WriteString("\n")
	src.Write(code)

	if _, err := parser.ParseFile(token.NewFileSet(), ex.site.File, src.String(), parser.ParseComments|parser.AllErrors); err != nil {
		return "", err
	}

	res, err := format.Source(code)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	return strings.TrimSpace(string(res)) + "\n", nil
}
