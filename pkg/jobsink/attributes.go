package jobsink

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// FormatAttributes renders attributes as a list of (key, value) pairs ordered
// by key, e.g. [('region', 'eu'), ('source', 'batch')].
func FormatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		b.WriteString(quote(k))
		b.WriteString(", ")
		b.WriteString(quote(attrs[k]))
		b.WriteString(")")
	}
	b.WriteByte(']')
	return b.String()
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return "'" + r.Replace(s) + "'"
}

// validateAttributes checks that every attribute value decodes as UTF-8.
func validateAttributes(attrs map[string]string) error {
	for k, v := range attrs {
		if !utf8.ValidString(v) {
			return fmt.Errorf("attribute %q is not valid utf-8", k)
		}
	}
	return nil
}
