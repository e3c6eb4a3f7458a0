// Package textutil holds string helpers for file and job naming: escaping
// output file names, deriving display names from uploaded archives, and
// producing filesystem-safe tokens.
package textutil
