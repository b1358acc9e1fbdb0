/*
 * doc.go, part of upm.
 *
 * Copyright 2024 The UPM developers
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package upm is the core of the Unified Parameter Model library. It holds the
canonical data model for molecular force-field parameters and everything that
keeps that model deterministic:

    Canonical term keys (bond/angle/dihedral/improper) with fixed
	representative orderings.

    Requirements sets for minimal resolving.

    Canonical tables (atom_types, bonds, angles, pair_overrides) with
	normalization (trim, canonicalize, stable sort) and aggregated
	semantic validation.

    The minimal-subset resolver, which reports every missing term at once.

Identical semantic input always produces identical canonical tables; every
map-to-sequence conversion in this package goes through an explicit, stable
sort. Subpackages build on this model: frc implements the legacy text codec,
upmjson the external JSON documents, build the parameter synthesis pipeline
and bundle the on-disk package format.
*/
package upm
