// internal/prompt/roles.go
package prompt

import "fmt"

// RoleConsolidate is the fixed system instruction for canonical-name
// consolidation.
const RoleConsolidate = `You consolidate lists of organization names. For every name you are given, choose the single canonical spelling that represents the real-world entity behind it. Prefer the shortest, most general form shared by the variants. Subunits and business divisions collapse into their parent organization's canonical form. Names that already are the canonical form map to themselves. Never invent organizations that are not in the input, and never drop or merge input rows.`

// RoleMatch is the fixed system instruction for fuzzy cross-list matching.
const RoleMatch = `You match entries of a primary list against a reference list. For every primary entry, pick the reference entry that names the same real-world entity, tolerating spelling variants, punctuation, and legal suffixes. If no reference entry names the same entity, use an empty string as the match. Only entries from the reference list may appear as matches. Every primary entry must be answered exactly once.`

// RoleCategorize builds the system instruction for category-label assignment
// from the caller's natural-language vocabulary description. The uncertain
// label is the caller's sentinel for entries the service cannot place.
func RoleCategorize(description, uncertain string) string {
	return fmt.Sprintf(`You assign category labels to list entries. The label vocabulary is described as follows: %s. Every entry gets exactly one label from that vocabulary. If you cannot decide with confidence, use the label %q instead of guessing or omitting the entry.`, description, uncertain)
}
