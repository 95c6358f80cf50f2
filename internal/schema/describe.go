package schema

import (
	"strings"
)

// Describe renders the schema as the indented outline embedded in the
// extraction prompt.
func (n *Node) Describe() string {
	var lines []string
	n.describe(&lines, 0)
	return strings.Join(lines, "\n")
}

func (n *Node) describe(lines *[]string, indent int) {
	prefix := strings.Repeat("  ", indent)

	presence := "OPTIONAL"
	if n.Mandatory {
		presence = "MANDATORY"
	}
	*lines = append(*lines, prefix+"- "+n.Name+" ("+presence+")")

	if n.Description != "" {
		*lines = append(*lines, prefix+"  Description: "+n.Description)
	}
	if n.List {
		*lines = append(*lines, prefix+"  Type: List of "+n.Type)
	} else {
		*lines = append(*lines, prefix+"  Type: "+n.Type)
	}

	if len(n.Fields) > 0 {
		*lines = append(*lines, prefix+"  Fields:")
		for _, f := range n.Fields {
			line := prefix + "    - " + f.Name + ": " + f.Type
			if f.Mandatory {
				line += " (MANDATORY)"
			}
			*lines = append(*lines, line)
			if f.Description != "" {
				*lines = append(*lines, prefix+"      Description: "+f.Description)
			}
			if len(f.Values) > 0 {
				*lines = append(*lines, prefix+"      Allowed values: "+strings.Join(f.Values, ", "))
			}
		}
	}

	if len(n.Children) > 0 {
		*lines = append(*lines, prefix+"  Children:")
		for _, c := range n.Children {
			c.describe(lines, indent+1)
		}
	}
}
