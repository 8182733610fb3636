package prompt

import "strings"

// Fill substitutes named placeholders in a template. Every literal
// occurrence of {{key}} for a key present in vars is replaced with its
// value; markers with no matching key are left untouched and keys absent
// from the template are ignored. There is no escaping and no recursive
// substitution, so re-applying Fill to an already-filled string is a no-op
// once no markers of vars' keys remain.
func Fill(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
