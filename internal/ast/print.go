package ast

import (
	"fmt"
	"strings"
)

// Print renders e as an indented s-expression, for the `l parse` command
// to dump a program before analysis runs.
func Print(e Expr) string {
	var sb strings.Builder
	print(&sb, e, 0)
	return sb.String()
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}

func print(sb *strings.Builder, e Expr, depth int) {
	indent(sb, depth)
	switch n := e.(type) {
	case *NullLiteral:
		sb.WriteString("(null)\n")
	case *StringLiteral:
		fmt.Fprintf(sb, "(string %q)\n", n.Value)
	case *CharLiteral:
		fmt.Fprintf(sb, "(char %q)\n", n.Value)
	case *IntLiteral:
		fmt.Fprintf(sb, "(int %d)\n", n.Value)
	case *FloatLiteral:
		fmt.Fprintf(sb, "(float %g)\n", n.Value)
	case *BoolLiteral:
		fmt.Fprintf(sb, "(bool %t)\n", n.Value)

	case *Identifier:
		fmt.Fprintf(sb, "(ident %s)\n", n.Name)

	case *Prefix:
		fmt.Fprintf(sb, "(prefix %q\n", n.Operator)
		print(sb, n.Operand, depth+1)
		closeParen(sb, depth)

	case *Infix:
		fmt.Fprintf(sb, "(infix %q\n", n.Operator)
		print(sb, n.Left, depth+1)
		print(sb, n.Right, depth+1)
		closeParen(sb, depth)

	case *Postfix:
		fmt.Fprintf(sb, "(postfix %q\n", n.Operator)
		print(sb, n.Operand, depth+1)
		closeParen(sb, depth)

	case *Block:
		fmt.Fprintf(sb, "(block trailing-semicolon=%t\n", n.TrailingSemicolon)
		for _, ex := range n.Exprs {
			print(sb, ex, depth+1)
		}
		closeParen(sb, depth)

	case *IfCondition:
		sb.WriteString("(if\n")
		print(sb, n.Cond, depth+1)
		print(sb, n.Then, depth+1)
		if n.Else != nil {
			print(sb, n.Else, depth+1)
		}
		closeParen(sb, depth)

	case *VariableDefinition:
		kw := "var"
		if n.Constant {
			kw = "val"
		}
		fmt.Fprintf(sb, "(%s %s\n", kw, n.Name)
		print(sb, n.Value, depth+1)
		closeParen(sb, depth)

	case *VariableAssignment:
		fmt.Fprintf(sb, "(assign %s%s\n", n.Name, accessorsString(n.Accessors))
		print(sb, n.Value, depth+1)
		closeParen(sb, depth)

	case *FunctionDefinition:
		name := "<anonymous>"
		if n.Name != nil {
			name = *n.Name
		}
		fmt.Fprintf(sb, "(fun %s\n", name)
		print(sb, n.Body, depth+1)
		closeParen(sb, depth)

	case *StructDefinition:
		name := "<anonymous>"
		if n.Name != nil {
			name = *n.Name
		}
		fmt.Fprintf(sb, "(struct-def %s fields=%d)\n", name, len(n.Fields))

	case *MakeStruct:
		name := "<structural>"
		if n.Name != nil {
			name = *n.Name
		}
		fmt.Fprintf(sb, "(mkstruct %s\n", name)
		for _, f := range n.Fields {
			indent(sb, depth+1)
			fmt.Fprintf(sb, "(field %s\n", f.Name)
			print(sb, f.Value, depth+2)
			closeParen(sb, depth+1)
		}
		closeParen(sb, depth)

	case *FunctionCall:
		sb.WriteString("(call\n")
		print(sb, n.Callee, depth+1)
		for _, a := range n.Args {
			print(sb, a, depth+1)
		}
		closeParen(sb, depth)

	case *ValueFunctionCall:
		fmt.Fprintf(sb, "(value-call %s\n", n.Method)
		print(sb, n.PreArgument, depth+1)
		for _, a := range n.Args {
			print(sb, a, depth+1)
		}
		closeParen(sb, depth)

	case *FieldAccess:
		fmt.Fprintf(sb, "(field-access %s\n", n.Field)
		print(sb, n.Expr, depth+1)
		closeParen(sb, depth)

	case *TypeLiteral:
		fmt.Fprintf(sb, "(type-literal %s)\n", n.Value.String())

	default:
		fmt.Fprintf(sb, "(unknown %T)\n", e)
	}
}

func closeParen(sb *strings.Builder, depth int) {
	indent(sb, depth)
	sb.WriteString(")\n")
}

func accessorsString(accessors []StructFieldAccessor) string {
	if len(accessors) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, a := range accessors {
		sb.WriteString(".")
		sb.WriteString(a.FieldName)
	}
	return sb.String()
}
