/*Package upmjson reads and writes the external JSON documents UPM exchanges
with structure-derivation tooling: Requirements, TermSet and ParameterSet on
the way in, and the missing-term report on the way out.

The TermSet and ParameterSet readers are validation shims: they enforce the
schema tag and the canonicalization invariants of the document and fail on
any violation instead of silently fixing the input. The Requirements reader,
by contrast, accepts raw (unsorted, possibly duplicated) lists and
canonicalizes them through upm.NewRequirements. All writers produce stable
output: two-space indentation, object keys in sorted order, one trailing
newline.*/
package upmjson
