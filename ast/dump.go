package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders the tree under n for debugging, one node per line.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	switch n := n.(type) {
	case *Static:
		fmt.Fprintf(b, "static %s\n", strconv.Quote(n.Text))
	case *Placeholder:
		fmt.Fprintf(b, "param #{%s}", n.Path)
		if n.Default != nil {
			fmt.Fprintf(b, " default=%s", n.Default)
		}
		if n.JDBCType != "" {
			fmt.Fprintf(b, " jdbcType=%s", n.JDBCType)
		}
		b.WriteByte('\n')
	case *If:
		fmt.Fprintf(b, "if %s\n", strconv.Quote(n.Test))
		dumpAll(b, n.Children, depth+1)
	case *Choose:
		b.WriteString("choose\n")
		for _, w := range n.Whens {
			fmt.Fprintf(b, "%s  when %s\n", indent, strconv.Quote(w.Test))
			dumpAll(b, w.Children, depth+2)
		}
		if n.Otherwise != nil {
			fmt.Fprintf(b, "%s  otherwise\n", indent)
			dumpAll(b, n.Otherwise.Children, depth+2)
		}
	case *Foreach:
		fmt.Fprintf(b, "foreach %s item=%s index=%s open=%q close=%q separator=%q\n",
			n.Collection, n.Item, n.Index, n.Open, n.Close, n.Separator)
		dumpAll(b, n.Children, depth+1)
	case *Where:
		b.WriteString("where\n")
		dumpAll(b, n.Children, depth+1)
	case *Set:
		b.WriteString("set\n")
		dumpAll(b, n.Children, depth+1)
	case *Trim:
		fmt.Fprintf(b, "trim prefix=%q suffix=%q prefixOverrides=%q suffixOverrides=%q\n",
			n.Prefix, n.Suffix, n.PrefixOverrides, n.SuffixOverrides)
		dumpAll(b, n.Children, depth+1)
	case *Bind:
		fmt.Fprintf(b, "bind %s = %s\n", n.Name, strconv.Quote(n.Expr))
	case *Include:
		fmt.Fprintf(b, "include %s\n", n.RefID)
	case *Select:
		b.WriteString("select\n")
		fmt.Fprintf(b, "%s  projection\n", indent)
		dumpAll(b, n.Projection, depth+2)
		dumpAll(b, n.Children, depth+1)
	case *OrderBy:
		b.WriteString("orderBy\n")
		dumpAll(b, n.Children, depth+1)
	case *Fragment:
		b.WriteString("fragment\n")
		dumpAll(b, n.Children, depth+1)
	default:
		b.WriteString("<nil>\n")
	}
}

func dumpAll(b *strings.Builder, nodes []Node, depth int) {
	for _, n := range nodes {
		dump(b, n, depth)
	}
}
