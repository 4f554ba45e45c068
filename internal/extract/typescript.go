package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

const tsSnippetMaxLines = 50

var hookNamePattern = regexp.MustCompile(`^use[A-Z]`)

// TypeScriptExtractor extracts functions, arrow-function/object/array
// constants, classes, and interfaces from TypeScript and JavaScript source
// via tree-sitter (functionNodes: function_declaration, arrow_function,
// function_expression; methodNodes: method_definition; classNodes:
// class_declaration; typeNodes: type_alias_declaration,
// interface_declaration).
type TypeScriptExtractor struct {
	jsx bool
}

// NewTypeScriptExtractor returns an extractor for .ts/.tsx/.js/.jsx files.
func NewTypeScriptExtractor() *TypeScriptExtractor { return &TypeScriptExtractor{} }

func (e *TypeScriptExtractor) Language() string { return "typescript" }

func (e *TypeScriptExtractor) CanHandle(path string) bool {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		if strings.HasSuffix(path, ext) && !strings.HasSuffix(path, ".test"+ext) && !strings.HasSuffix(path, ".spec"+ext) {
			return true
		}
	}
	return false
}

func (e *TypeScriptExtractor) Capabilities() Capabilities {
	return Capabilities{Syntax: true, Types: true, References: false, Documentation: true}
}

func tsGrammarFor(path string) *sitter.Language {
	if strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".jsx") {
		return javascript.GetLanguage()
	}
	return typescript.GetLanguage()
}

func (e *TypeScriptExtractor) Extract(relativePath string, content []byte) ([]domain.Document, error) {
	if IsGenerated(content) {
		return nil, nil
	}

	lang := "javascript"
	if strings.HasSuffix(relativePath, ".ts") || strings.HasSuffix(relativePath, ".tsx") {
		lang = "typescript"
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsGrammarFor(relativePath))
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrParse, relativePath, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}

	var docs []domain.Document
	var walk func(n *sitter.Node, className string)
	walk = func(n *sitter.Node, className string) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			if d, ok := tsFunctionDoc(relativePath, lang, n, content, "", false); ok {
				docs = append(docs, d)
			}
			return
		case "method_definition":
			if d, ok := tsFunctionDoc(relativePath, lang, n, content, className, true); ok {
				docs = append(docs, d)
			}
			return
		case "class_declaration":
			name := tsIdentifierChild(n, content)
			docs = append(docs, tsClassDoc(relativePath, lang, n, content, name))
			if body := n.ChildByFieldName("body"); body != nil {
				for i := 0; i < int(body.ChildCount()); i++ {
					walk(body.Child(i), name)
				}
			}
			return
		case "interface_declaration", "type_alias_declaration":
			docs = append(docs, tsTypeDoc(relativePath, lang, n, content))
			return
		case "variable_declarator":
			if d, ok := tsConstantDoc(relativePath, lang, n, content); ok {
				docs = append(docs, d)
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), className)
		}
	}
	walk(root, "")

	return docs, nil
}

func tsIdentifierChild(n *sitter.Node, source []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nodeText(nameNode, source)
}

func tsFunctionDoc(relativePath, lang string, node *sitter.Node, source []byte, owner string, isMethod bool) (domain.Document, bool) {
	name := tsIdentifierChild(node, source)
	if name == "" {
		return domain.Document{}, false
	}

	qualifiedName := QualifiedName(owner, name)
	docstring := tsPrecedingComment(node, source)
	params := tsExtractParameters(node, source)
	isAsync := tsHasChildOfText(node, source, "async")

	signature := "function " + name + "(" + strings.Join(params, ", ") + ")"
	if isAsync {
		signature = "async " + signature
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
		Exported:  true,
		Docstring: docstring,
		Snippet:   domain.TruncateSnippet(nodeText(node, source), tsSnippetMaxLines),
		Callees:   tsExtractCallees(node, source, relativePath),
	}
	meta = meta.WithCustom("isAsync", isAsync)
	meta = meta.WithCustom("isHook", hookNamePattern.MatchString(name))
	if owner != "" {
		meta = meta.WithCustom("class", owner)
	}

	text := domain.BuildEmbeddingText(docType, qualifiedName, signature, docstring)
	doc := domain.Document{
		ID:       DocumentID(relativePath, qualifiedName, startLine),
		Text:     text,
		Type:     docType,
		Language: lang,
		Metadata: meta,
	}
	return doc, true
}

// tsConstantDoc handles top-level `const x = (...) => ...`, `const x =
// function(...) {...}`, and `const x = {...}`/`const x = [...]` bindings,
// flagging each with its constant-shape metadata.
func tsConstantDoc(relativePath, lang string, decl *sitter.Node, source []byte) (domain.Document, bool) {
	nameNode := decl.ChildByFieldName("name")
	valueNode := decl.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return domain.Document{}, false
	}
	name := nodeText(nameNode, source)
	if !tsIsTopLevelConst(decl) {
		return domain.Document{}, false
	}

	isArrow := valueNode.Type() == "arrow_function"
	isFunctionExpr := valueNode.Type() == "function_expression"
	isObject := valueNode.Type() == "object"
	isArray := valueNode.Type() == "array"

	if !isArrow && !isFunctionExpr && !isObject && !isArray {
		return domain.Document{}, false
	}

	constantKind := "value"
	switch {
	case isArrow:
		constantKind = "arrowFunction"
	case isFunctionExpr:
		constantKind = "functionExpression"
	case isObject:
		constantKind = "object"
	case isArray:
		constantKind = "array"
	}

	docstring := tsPrecedingComment(declStatement(decl), source)
	var params []string
	var callees []domain.Callee
	if isArrow || isFunctionExpr {
		params = tsExtractParameters(valueNode, source)
		callees = tsExtractCallees(valueNode, source, relativePath)
	}

	signature := "const " + name
	if len(params) > 0 || isArrow || isFunctionExpr {
		signature += " = (" + strings.Join(params, ", ") + ") => ..."
	}

	startLine := int(decl.StartPoint().Row) + 1
	endLine := int(decl.EndPoint().Row) + 1

	meta := domain.CoreMetadata{
		File:      relativePath,
		StartLine: startLine,
		EndLine:   endLine,
		Name:      name,
		Signature: signature,
		Exported:  true,
		Docstring: docstring,
		Snippet:   domain.TruncateSnippet(nodeText(decl, source), tsSnippetMaxLines),
		Callees:   callees,
	}
	meta = meta.WithCustom("isArrowFunction", isArrow)
	meta = meta.WithCustom("isConstant", true)
	meta = meta.WithCustom("constantKind", constantKind)
	meta = meta.WithCustom("isHook", hookNamePattern.MatchString(name))

	text := domain.BuildEmbeddingText(domain.DocTypeVariable, name, signature, docstring)
	return domain.Document{
		ID:       DocumentID(relativePath, name, startLine),
		Text:     text,
		Type:     domain.DocTypeVariable,
		Language: lang,
		Metadata: meta,
	}, true
}

// tsIsTopLevelConst walks up from a variable_declarator to confirm its
// enclosing lexical_declaration is "const" and sits directly under the
// program root (module scope); constant extraction is scoped to
// module-level bindings only.
func tsIsTopLevelConst(declarator *sitter.Node) bool {
	stmt := declStatement(declarator)
	if stmt == nil || stmt.Type() != "lexical_declaration" {
		return false
	}
	kind := stmt.Child(0)
	if kind == nil || kind.Type() != "const" {
		return false
	}
	parent := stmt.Parent()
	return parent != nil && parent.Type() == "program"
}

func declStatement(declarator *sitter.Node) *sitter.Node {
	n := declarator.Parent()
	for n != nil && n.Type() != "lexical_declaration" && n.Type() != "variable_declaration" {
		n = n.Parent()
	}
	return n
}

func tsClassDoc(relativePath, lang string, node *sitter.Node, source []byte, name string) domain.Document {
	docstring := tsPrecedingComment(node, source)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	signature := "class " + name

	meta := domain.CoreMetadata{
		File:      relativePath,
		StartLine: startLine,
		EndLine:   endLine,
		Name:      name,
		Signature: signature,
		Exported:  true,
		Docstring: docstring,
		Snippet:   domain.TruncateSnippet(nodeText(node, source), tsSnippetMaxLines),
	}

	text := domain.BuildEmbeddingText(domain.DocTypeClass, name, signature, docstring)
	return domain.Document{
		ID:       DocumentID(relativePath, name, startLine),
		Text:     text,
		Type:     domain.DocTypeClass,
		Language: lang,
		Metadata: meta,
	}
}

func tsTypeDoc(relativePath, lang string, node *sitter.Node, source []byte) domain.Document {
	name := tsIdentifierChild(node, source)
	docType := domain.DocTypeType
	keyword := "type"
	if node.Type() == "interface_declaration" {
		docType = domain.DocTypeInterface
		keyword = "interface"
	}

	docstring := tsPrecedingComment(node, source)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	signature := keyword + " " + name

	meta := domain.CoreMetadata{
		File:      relativePath,
		StartLine: startLine,
		EndLine:   endLine,
		Name:      name,
		Signature: signature,
		Exported:  true,
		Docstring: docstring,
		Snippet:   domain.TruncateSnippet(nodeText(node, source), tsSnippetMaxLines),
	}

	text := domain.BuildEmbeddingText(docType, name, signature, docstring)
	return domain.Document{
		ID:       DocumentID(relativePath, name, startLine),
		Text:     text,
		Type:     docType,
		Language: lang,
		Metadata: meta,
	}
}

func tsExtractParameters(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var result []string
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "required_parameter", "optional_parameter", "object_pattern", "array_pattern":
			result = append(result, nodeText(child, source))
		}
	}
	return result
}

func tsHasChildOfText(node *sitter.Node, source []byte, text string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && nodeText(child, source) == text {
			return true
		}
	}
	return false
}

func tsExtractCallees(node *sitter.Node, source []byte, file string) []domain.Callee {
	seen := make(map[string]bool)
	var callees []domain.Callee
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				name := tsCalleeName(fn, source)
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
	walk(node)

	sort.Slice(callees, func(i, j int) bool {
		if callees[i].Line != callees[j].Line {
			return callees[i].Line < callees[j].Line
		}
		return callees[i].Name < callees[j].Name
	})
	return callees
}

func tsCalleeName(fn *sitter.Node, source []byte) string {
	switch fn.Type() {
	case "identifier":
		return nodeText(fn, source)
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return nodeText(prop, source)
		}
	}
	return ""
}

func tsPrecedingComment(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	var comments []string
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == "comment" {
		text := cleanTSComment(nodeText(prev, source))
		if text != "" {
			comments = append([]string{text}, comments...)
		} else {
			break
		}
		prev = prev.PrevSibling()
	}
	return strings.Join(comments, "\n")
}

func cleanTSComment(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "/**"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "*")
			lines = append(lines, strings.TrimSpace(line))
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	}
	return strings.TrimSpace(text)
}

var _ Extractor = (*TypeScriptExtractor)(nil)
