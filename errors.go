/*
 * errors.go, part of gocrystal.
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
	"errors"
	"fmt"
	"strings"
)

//Error is the interface for errors that all packages in this library implement.
//Decorate adds information when the error is passed up. Each call returns the "decoration"
//slice of strings resulting from the current call. If passed an empty string, it just returns
//the current value, without adding the empty string to the slice.
//The decoration slice contains the functions in the calling stack, plus, for each function,
//any relevant information, in the format "FunctionName: Extra info"
type Error interface {
	Error() string
	Decorate(string) []string
}

//Kind classifies errors, so callers can react to a given failure
//(for instance, skip a structure that is not a supercell of the lattice)
//without parsing messages.
type Kind int

const (
	Other          Kind = iota
	NotSupercell        //the structure cell is not an integer multiple of the lattice cell
	NotIdeal            //an atom is too far from its ideal lattice position
	AtomCount           //the number of atoms is not commensurate with the lattice
	SiteCount           //the lattice has a wrong number of sites
	TypeCount           //the lattice has a wrong number of atomic types
	DuplicateIndex      //two atoms claim the same lattice slot
	MissingIndex        //a lattice slot is not occupied by any atom
	BondCount           //a center does not have the required number of bonds
	Config              //missing or malformed parameters
	Shape               //mismatched sizes in the input
	Input               //any other problem with the input
)

var kindNames = map[Kind]string{
	Other:          "other",
	NotSupercell:   "not a supercell",
	NotIdeal:       "not ideal",
	AtomCount:      "atom count",
	SiteCount:      "site count",
	TypeCount:      "type count",
	DuplicateIndex: "duplicate index",
	MissingIndex:   "missing index",
	BondCount:      "bond count",
	Config:         "configuration",
	Shape:          "shape",
	Input:          "input",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

//CError (Common Error) is the error type returned by the goCrystal packages.
type CError struct {
	msg  string
	deco []string
	kind Kind
}

//NewError returns a new *CError of the given kind, created in the function
//caller, with a message built from format and args, as in fmt.Sprintf.
func NewError(kind Kind, caller string, format string, args ...interface{}) *CError {
	return &CError{msg: fmt.Sprintf(format, args...), deco: []string{caller}, kind: kind}
}

//Error returns the message of the error, preceded by the call stack
//it has been decorated with, if any.
func (err *CError) Error() string {
	if len(err.deco) == 0 {
		return err.msg
	}
	//the decorations are added as the error goes up, so we print them backwards.
	d := make([]string, len(err.deco))
	for i, v := range err.deco {
		d[len(d)-1-i] = v
	}
	return strings.Join(d, ": ") + ": " + err.msg
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err *CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//Kind returns the kind of the error
func (err *CError) Kind() Kind {
	return err.kind
}

//Message returns the message of the error, without decorations.
func (err *CError) Message() string {
	return err.msg
}

//ErrDecorate decorates err with caller, if err implements Error,
//and returns it. Other errors are returned untouched.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

//IsKind returns true if err is, or wraps, a *CError of kind k.
func IsKind(err error, k Kind) bool {
	var e *CError
	if errors.As(err, &e) {
		return e.kind == k
	}
	return false
}
