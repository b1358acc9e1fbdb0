/*
 * files.go, part of upm.
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

package frc

import (
	"compress/gzip"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	upm "github.com/molsaic/upm"
)

// zstdReadCloser exists because *zstd.Decoder does not implement
// io.ReadCloser (its Close returns nothing).
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func fileExt(fname string) string {
	temp := strings.Split(fname, ".")
	return strings.ToLower(temp[len(temp)-1])
}

// openSource opens fname and returns a reader that decompresses on the fly
// when the extension is .gz or .zst. Any other extension is read as plain
// text; a message is logged for extensions other than .frc, since the file
// may simply be misnamed.
func openSource(fname string) (io.ReadCloser, error) {
	fh, err := os.Open(fname)
	if err != nil {
		return nil, Error{err.Error(), fname, []string{"os.Open", "openSource"}, true}
	}
	switch fk := fileExt(fname); fk {
	case "gz":
		r, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, Error{err.Error(), fname, []string{"gzip.NewReader", "openSource"}, true}
		}
		return r, nil
	case "zst":
		r, err := zstd.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, Error{err.Error(), fname, []string{"zstd.NewReader", "openSource"}, true}
		}
		return zstdReadCloser{r}, nil
	case "frc":
		return fh, nil
	default:
		log.Printf("Extension %s not recognized. %s will be assumed to be a plain frc file", fk, fname)
		return fh, nil
	}
}

// SourceText returns the (decompressed) text of a .frc file without parsing
// it. Extensions .gz and .zst are decompressed transparently; anything else
// is read as plain text.
func SourceText(fname string) (string, error) {
	src, err := openSource(fname)
	if err != nil {
		return "", err
	}
	defer src.Close()
	buf, err := io.ReadAll(src)
	if err != nil {
		return "", Error{err.Error(), fname, []string{"io.ReadAll", "SourceText"}, true}
	}
	return string(buf), nil
}

// ReadFile reads and parses a .frc file. Extensions .gz and .zst are
// decompressed transparently; anything else is read as plain text. A nil
// opts means DefaultOptions.
func ReadFile(fname string, opts *Options) (*upm.Tables, []Section, error) {
	text, err := SourceText(fname)
	if err != nil {
		return nil, nil, err
	}
	tables, raw, err := Parse(text, opts)
	if err != nil {
		return nil, nil, err
	}
	return tables, raw, nil
}

// WriteFile renders tables with Text and writes the result to fname,
// compressing when the extension is .gz or .zst. The text is fully built
// before the file is touched, so a failed render leaves no partial file.
func WriteFile(fname string, tables *upm.Tables, raw []Section, includeRaw bool) error {
	text, err := Text(tables, raw, includeRaw)
	if err != nil {
		return err
	}
	fh, err := os.Create(fname)
	if err != nil {
		return Error{err.Error(), fname, []string{"os.Create", "WriteFile"}, true}
	}
	defer fh.Close()

	var w io.WriteCloser
	compressed := true
	switch fk := fileExt(fname); fk {
	case "gz":
		w = gzip.NewWriter(fh)
	case "zst":
		w, err = zstd.NewWriter(fh)
		if err != nil {
			return Error{err.Error(), fname, []string{"zstd.NewWriter", "WriteFile"}, true}
		}
	case "frc":
		w = fh
		compressed = false
	default:
		log.Printf("Extension %s not recognized. %s will be written as a plain frc file", fk, fname)
		w = fh
		compressed = false
	}
	if _, err := io.WriteString(w, text); err != nil {
		return Error{err.Error(), fname, []string{"io.WriteString", "WriteFile"}, true}
	}
	if compressed {
		if err := w.Close(); err != nil {
			return Error{err.Error(), fname, []string{"Close", "WriteFile"}, true}
		}
	}
	return nil
}
