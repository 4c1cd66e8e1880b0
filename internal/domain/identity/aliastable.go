package identity

// DefaultAliases is the built-in team-family table covering the clubs the
// engine ships with. Keys and values are canonical (already normalized).
func DefaultAliases() map[string]string {
	return map[string]string{
		"lyon villeurbanne":       "asvel",
		"ldlc asvel":              "asvel",
		"asvel lyon villeurbanne": "asvel",
		"fc barcelona":            "barcelona",
		"barca":                   "barcelona",
		"barcelona lassa":         "barcelona",
		"penya":                   "joventut badalona",
	}
}

// NormalizeAliasTable canonicalizes a raw alias table (display spellings on
// both sides) so lookups hit normalized keys. Entries that normalize to
// empty or map a key onto itself are dropped.
func NormalizeAliasTable(raw map[string]string, cfg Config) map[string]string {
	table := make(map[string]string, len(raw))
	for alias, family := range raw {
		aliasKey := Normalize(alias, cfg)
		familyKey := Normalize(family, cfg)
		if aliasKey == "" || familyKey == "" || aliasKey == familyKey {
			continue
		}
		table[aliasKey] = familyKey
	}
	return table
}

// MergeAliases overlays extra entries on top of base without mutating
// either input.
func MergeAliases(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
