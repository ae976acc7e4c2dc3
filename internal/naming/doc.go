// Package naming derives filenames from recognized text and resolves
// collisions in the target directory.
//
// [Derive] is a pure function of the text, the original filename, the
// [Rules] and the run time. It applies a fixed order: transliterate,
// sanitize, truncate, trim. Empty results fall back to the original name or a
// placeholder. In components mode the text is first mined for metadata
// (date, vendor, amount, invoice and reference numbers, a custom search
// term) by an ordered regex table.
//
// [CollisionResolver] is the only part that looks at the filesystem. It
// appends "_N" suffixes with the smallest free N, counting both files on
// disk and destinations already claimed in this run.
package naming
