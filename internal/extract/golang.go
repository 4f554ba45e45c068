package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

const goSnippetMaxLines = 50

// GoExtractor extracts functions, methods, and type declarations from Go
// source via tree-sitter, using query-driven, grammar-backed parsing.
type GoExtractor struct{}

// NewGoExtractor returns a ready-to-use Go extractor.
func NewGoExtractor() *GoExtractor { return &GoExtractor{} }

func (e *GoExtractor) Language() string { return "go" }

func (e *GoExtractor) CanHandle(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}

func (e *GoExtractor) Capabilities() Capabilities {
	return Capabilities{Syntax: true, Types: true, References: false, Documentation: true}
}

func (e *GoExtractor) Extract(relativePath string, content []byte) ([]domain.Document, error) {
	if IsGenerated(content) {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrParse, relativePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var docs []domain.Document
	packageName := goPackageName(root, content)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			if d, ok := goFunctionDoc(relativePath, packageName, n, content, false); ok {
				docs = append(docs, d)
			}
			return
		case "method_declaration":
			if d, ok := goFunctionDoc(relativePath, packageName, n, content, true); ok {
				docs = append(docs, d)
			}
			return
		case "type_declaration":
			docs = append(docs, goTypeDocs(relativePath, packageName, n, content)...)
			return
		case "const_declaration":
			docs = append(docs, goConstDocs(relativePath, packageName, n, content)...)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	return docs, nil
}

func goPackageName(root *sitter.Node, source []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child != nil && child.Type() == "package_clause" {
			if name := child.ChildByFieldName("name"); name != nil {
				return nodeText(name, source)
			}
		}
	}
	return ""
}

func goFunctionDoc(relativePath, packageName string, node *sitter.Node, source []byte, isMethod bool) (domain.Document, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return domain.Document{}, false
	}
	name := nodeText(nameNode, source)

	receiver, pointerReceiver := "", false
	if isMethod {
		receiver, pointerReceiver = goExtractReceiver(node, source)
	}
	qualifiedName := QualifiedName(receiver, name)

	docstring := goPrecedingComment(node, source)
	params := goExtractParameters(node, source)
	returnType := goExtractReturnType(node, source)
	generics := goExtractTypeParams(node, source)

	signature := "func " + name
	if generics != "" {
		signature += generics
	}
	signature += "(" + strings.Join(params, ", ") + ")"
	if returnType != "" {
		signature += " " + returnType
	}

	docType := domain.DocTypeFunction
	if isMethod {
		docType = domain.DocTypeMethod
	}

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	meta := domain.CoreMetadata{
		File:      relativePath,
		StartLine: startLine,
		EndLine:   endLine,
		Name:      name,
		Signature: signature,
		Exported:  goIsExported(name),
		Docstring: docstring,
		Snippet:   domain.TruncateSnippet(nodeText(node, source), goSnippetMaxLines),
		Callees:   goExtractCallees(node, source, relativePath),
	}
	if packageName != "" {
		meta = meta.WithCustom("package", packageName)
	}
	if isMethod {
		meta = meta.WithCustom("receiver", receiver).WithCustom("pointerReceiver", pointerReceiver)
	}
	if generics != "" {
		meta = meta.WithCustom("generics", generics)
	}

	text := domain.BuildEmbeddingText(docType, qualifiedName, signature, docstring)
	doc := domain.Document{
		ID:       DocumentID(relativePath, qualifiedName, startLine),
		Text:     text,
		Type:     docType,
		Language: "go",
		Metadata: meta,
	}
	return doc, true
}

// goExtractReceiver returns the receiver's type name and whether it is a
// pointer receiver, e.g. "(r *Repo)" -> ("Repo", true).
func goExtractReceiver(node *sitter.Node, source []byte) (string, bool) {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return "", false
	}

	pointer := false
	var typeName string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || typeName != "" {
			return
		}
		switch n.Type() {
		case "pointer_type":
			pointer = true
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
		case "type_identifier":
			typeName = nodeText(n, source)
		default:
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
		}
	}
	walk(receiver)
	return typeName, pointer
}

func goExtractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var result []string
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		if child == nil || child.Type() != "parameter_declaration" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		typeNode := child.ChildByFieldName("type")
		switch {
		case nameNode != nil && typeNode != nil:
			// A grouped declaration such as "a, b int" has one identifier
			// child per name; each gets its own "name type" entry.
			typeText := nodeText(typeNode, source)
			for j := 0; j < int(child.ChildCount()); j++ {
				if n := child.Child(j); n != nil && n.Type() == "identifier" {
					result = append(result, strings.TrimSpace(nodeText(n, source)+" "+typeText))
				}
			}
		case typeNode != nil:
			result = append(result, nodeText(typeNode, source))
		}
	}
	return result
}

func goExtractReturnType(node *sitter.Node, source []byte) string {
	result := node.ChildByFieldName("result")
	if result == nil {
		return ""
	}
	return nodeText(result, source)
}

// goExtractTypeParams returns a generic type-parameter clause's raw text,
// e.g. "[T any]", by scanning the declaration's own source text between the
// function name and its parameter list rather than relying on a dedicated
// tree-sitter field (not all grammar versions expose one).
func goExtractTypeParams(node *sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	paramsNode := node.ChildByFieldName("parameters")
	if nameNode == nil || paramsNode == nil {
		return ""
	}
	between := string(source[nameNode.EndByte():paramsNode.StartByte()])
	between = strings.TrimSpace(between)
	if strings.HasPrefix(between, "[") && strings.HasSuffix(between, "]") {
		return between
	}
	return ""
}

func goTypeDocs(relativePath, packageName string, decl *sitter.Node, source []byte) []domain.Document {
	var specs []*sitter.Node
	if decl.Type() == "type_declaration" {
		for i := 0; i < int(decl.ChildCount()); i++ {
			if child := decl.Child(i); child != nil && child.Type() == "type_spec" {
				specs = append(specs, child)
			}
		}
	} else {
		specs = append(specs, decl)
	}

	docs := make([]domain.Document, 0, len(specs))
	for _, spec := range specs {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, source)
		kind := goTypeKind(spec)
		docstring := goPrecedingComment(decl, source)
		fields := goExtractStructFields(spec, source)

		docType := domain.DocTypeType
		if kind == "interface" {
			docType = domain.DocTypeInterface
		}

		signature := "type " + name + " " + kind
		startLine := int(decl.StartPoint().Row) + 1
		endLine := int(decl.EndPoint().Row) + 1

		meta := domain.CoreMetadata{
			File:      relativePath,
			StartLine: startLine,
			EndLine:   endLine,
			Name:      name,
			Signature: signature,
			Exported:  goIsExported(name),
			Docstring: docstring,
			Snippet:   domain.TruncateSnippet(nodeText(spec, source), goSnippetMaxLines),
		}
		meta = meta.WithCustom("kind", kind)
		if packageName != "" {
			meta = meta.WithCustom("package", packageName)
		}
		if len(fields) > 0 {
			meta = meta.WithCustom("fields", fields)
		}

		text := domain.BuildEmbeddingText(docType, name, signature, docstring)
		docs = append(docs, domain.Document{
			ID:       DocumentID(relativePath, name, startLine),
			Text:     text,
			Type:     docType,
			Language: "go",
			Metadata: meta,
		})
	}
	return docs
}

func goTypeKind(spec *sitter.Node) string {
	typeNode := spec.ChildByFieldName("type")
	if typeNode == nil {
		return "alias"
	}
	switch typeNode.Type() {
	case "struct_type":
		return "struct"
	case "interface_type":
		return "interface"
	case "map_type":
		return "map"
	case "channel_type":
		return "channel"
	case "function_type":
		return "func"
	case "slice_type", "array_type":
		return "slice"
	case "pointer_type":
		return "pointer"
	default:
		return "alias"
	}
}

func goExtractStructFields(spec *sitter.Node, source []byte) []string {
	typeNode := spec.ChildByFieldName("type")
	if typeNode == nil || typeNode.Type() != "struct_type" {
		return nil
	}

	var fields []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "field_declaration" {
			nameNode := n.ChildByFieldName("name")
			fieldType := n.ChildByFieldName("type")
			if nameNode != nil && fieldType != nil {
				fields = append(fields, nodeText(nameNode, source)+" "+nodeText(fieldType, source))
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(typeNode)
	return fields
}

func goConstDocs(relativePath, packageName string, decl *sitter.Node, source []byte) []domain.Document {
	var docs []domain.Document
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "const_spec" {
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				return
			}
			name := nodeText(nameNode, source)
			if !goIsExported(name) {
				return
			}
			startLine := int(n.StartPoint().Row) + 1
			endLine := int(n.EndPoint().Row) + 1
			signature := nodeText(n, source)
			docstring := goPrecedingComment(decl, source)

			meta := domain.CoreMetadata{
				File:      relativePath,
				StartLine: startLine,
				EndLine:   endLine,
				Name:      name,
				Signature: signature,
				Exported:  true,
				Docstring: docstring,
			}
			if packageName != "" {
				meta = meta.WithCustom("package", packageName)
			}

			text := domain.BuildEmbeddingText(domain.DocTypeVariable, name, signature, docstring)
			docs = append(docs, domain.Document{
				ID:       DocumentID(relativePath, name, startLine),
				Text:     text,
				Type:     domain.DocTypeVariable,
				Language: "go",
				Metadata: meta,
			})
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(decl)
	return docs
}

// goExtractCallees walks a function/method body for call_expression nodes,
// deduping callee entries by (name, line).
func goExtractCallees(node *sitter.Node, source []byte, file string) []domain.Callee {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	seen := make(map[string]bool)
	var callees []domain.Callee
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := goCalleeName(fn, source)
				if name != "" {
					line := int(n.StartPoint().Row) + 1
					key := fmt.Sprintf("%s:%d", name, line)
					if !seen[key] {
						seen[key] = true
						callees = append(callees, domain.Callee{Name: name, Line: line, File: file})
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)

	sort.Slice(callees, func(i, j int) bool {
		if callees[i].Line != callees[j].Line {
			return callees[i].Line < callees[j].Line
		}
		return callees[i].Name < callees[j].Name
	})
	return callees
}

func goCalleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return nodeText(field, source)
		}
	}
	return ""
}

func goPrecedingComment(node *sitter.Node, source []byte) string {
	var comments []string
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == "comment" {
		text := cleanGoComment(nodeText(prev, source))
		if text != "" {
			comments = append([]string{text}, comments...)
		} else {
			break
		}
		prev = prev.PrevSibling()
	}
	return strings.Join(comments, "\n")
}

func cleanGoComment(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "//")
	if strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}
	return strings.TrimSpace(text)
}

func goIsExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return r >= 'A' && r <= 'Z'
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

var _ Extractor = (*GoExtractor)(nil)
