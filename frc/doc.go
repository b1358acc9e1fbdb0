package frc

/*Package frc reads and writes the legacy MSI/CVFF ".frc" force-field text
format and converts it to/from the canonical tables of package upm.

The format is line oriented: section headers start with '#', directive lines
inside a section start with '@', and '!'/';'/blank/'>' lines are ignorable.
Only a subset of sections is understood (#atom_types, #quadratic_bond,
#quadratic_angle, #nonbond(12-6), #bond_increments); every other section,
including any text before the first header, is preserved verbatim as an
ordered list of raw sections so that parse->write round trips are lossless
for content this package does not understand.

Row layouts in the wild carry a variable number of leading metadata columns,
so the row parsers locate fields by scanning for the trailing adjacent pair
of numeric tokens instead of assuming fixed columns. Parsing is pure and
deterministic; the writer produces byte-identical output for identical input
and builds the whole file in memory before touching disk.*/
