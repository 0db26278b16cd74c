/*
 * files.go, part of gocrystal.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
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

package crystal

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

//zstd.Decoder doesn't implement io.ReadCloser, as its Close method doesn't
//return anything.
type zstdql struct {
	closeql func()
	*zstd.Decoder
	f *os.File
}

//Close Closes the object. It can not be used after this call
func (z zstdql) Close() error {
	z.closeql()
	return z.f.Close()
}

type zstdwc struct {
	*zstd.Encoder
	f *os.File
}

func (z zstdwc) Close() error {
	err := z.Encoder.Close()
	err2 := z.f.Close()
	if err != nil {
		return err
	}
	return err2
}

//OpenReader opens the file name for reading. If the name ends in ".zst",
//the contents are decompressed with zstd.
func OpenReader(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, NewError(Input, "OpenReader", "can't open %s: %v", name, err)
	}
	if !strings.HasSuffix(name, ".zst") {
		return f, nil
	}
	r, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, NewError(Input, "OpenReader", "can't start zstd decoder for %s: %v", name, err)
	}
	return zstdql{r.Close, r, f}, nil
}

//CreateWriter creates the file name for writing. If the name ends in ".zst",
//the contents are compressed with zstd.
func CreateWriter(name string) (io.WriteCloser, error) {
	f, err := os.Create(name)
	if err != nil {
		return nil, NewError(Input, "CreateWriter", "can't create %s: %v", name, err)
	}
	if !strings.HasSuffix(name, ".zst") {
		return f, nil
	}
	w, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		f.Close()
		return nil, NewError(Input, "CreateWriter", "can't start zstd encoder for %s: %v", name, err)
	}
	return zstdwc{w, f}, nil
}

//ReadJSON decodes the JSON file name (possibly zstd-compressed) into v.
func ReadJSON(name string, v interface{}) error {
	r, err := OpenReader(name)
	if err != nil {
		return ErrDecorate(err, "ReadJSON")
	}
	defer r.Close()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return NewError(Config, "ReadJSON", "can't decode %s: %v", name, err)
	}
	return nil
}

//WriteJSON encodes v as JSON in the file name, which is zstd-compressed if
//its name ends in ".zst".
func WriteJSON(name string, v interface{}) error {
	w, err := CreateWriter(name)
	if err != nil {
		return ErrDecorate(err, "WriteJSON")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		w.Close()
		return NewError(Input, "WriteJSON", "can't encode to %s: %v", name, err)
	}
	if err := w.Close(); err != nil {
		return NewError(Input, "WriteJSON", "can't close %s: %v", name, err)
	}
	return nil
}

//ReadStructure reads a structure from the JSON file name.
func ReadStructure(name string) (*Structure, error) {
	S := new(Structure)
	if err := ReadJSON(name, S); err != nil {
		return nil, ErrDecorate(err, "ReadStructure")
	}
	return S, nil
}

//WriteStructure writes the structure S to the JSON file name.
func WriteStructure(name string, S *Structure) error {
	return ErrDecorate(WriteJSON(name, S), "WriteStructure")
}
