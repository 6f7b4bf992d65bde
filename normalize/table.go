package normalize

// substitutions maps known garbled byte sequences (UTF-8 read as a legacy
// Windows code page) to the Azerbaijani characters they stand for. This is
// tunable data, not logic: the repair mechanism only applies the table and
// keeps the result when it increases the Azerbaijani letter count. Longer
// sequences come first so double-garbled forms win over their suffixes.
var substitutions = []struct {
	bad  string
	good string
}{
	// double-garbled (re-encoded twice); seen on feeds that recode their
	// own mojibake
	{"ÃƒÂ§", "ç"},
	{"ÃƒÂ¶", "ö"},
	{"ÃƒÂ¼", "ü"},

	// UTF-8 interpreted as Windows-1252
	{"Æ", "Ə"},
	{"É™", "ə"},
	{"Æ", "Ə"},
	{"Ã§", "ç"},
	{"Ã‡", "Ç"},
	{"Ã¶", "ö"},
	{"Ã–", "Ö"},
	{"Ã¼", "ü"},
	{"Ãœ", "Ü"},
	{"ÅŸ", "ş"},
	{"Åž", "Ş"},
	{"ÄŸ", "ğ"},
	{"Äž", "Ğ"},
	{"Ä±", "ı"},
	{"Ä°", "İ"},

	// punctuation noise that rides along with the same corruption
	{"â€™", "’"},
	{"â€œ", "“"},
	{"â€", "”"},
	{"â€“", "–"},
	{"â€”", "—"},
	{"Â ", " "},
}
