/*
 * gonum.go, part of atomchain.
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//gonum.go contains what is needed for handling the gonum/mat types and facilities.

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space. Within the package it is understood
// that a "vector" is a row vector, i.e. the cartesian coordinates of a point
// in 3D space. The name of some functions in the library reflect this.
type Matrix struct {
	*mat.Dense
}

// Matrix2Dense returns the underlying gonum Dense
func Matrix2Dense(A *Matrix) *mat.Dense {
	return A.Dense
}

// Dense2Matrix wraps a gonum Dense with 3 columns. It panics if the Dense doesn't have 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	if _, c := A.Dims(); c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
// The data slice is used as backing storage, not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d, or empty", l, cols), []string{"NewMatrix"}, true}
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

// VecView returns a view of the given vector of the matrix.
// Changes in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

// View returns a view of F starting from vector i and spanning r vectors.
func (F *Matrix) View(i, r int) *Matrix {
	ret := F.Dense.Slice(i, i+r, 0, 3).(*mat.Dense)
	return &Matrix{ret}
}

// Mul wrapps mat.Dense.Mul to take care of the case when one of the
// arguments is also the receiver.
func (F *Matrix) Mul(A, B mat.Matrix) {
	if a, ok := A.(*Matrix); ok {
		A = a.Dense
	}
	if b, ok := B.(*Matrix); ok {
		B = b.Dense
	}
	F.Dense.Mul(A, B)
}

// dense returns the *mat.Dense under A if A is a *Matrix, so gonum
// can detect when an argument is also the receiver.
func dense(A mat.Matrix) mat.Matrix {
	if a, ok := A.(*Matrix); ok {
		return a.Dense
	}
	return A
}

// Scale puts in F the matrix A scaled by f. A can be F.
func (F *Matrix) Scale(f float64, A mat.Matrix) {
	F.Dense.Scale(f, dense(A))
}

// Add puts A+B in F. A or B can be F.
func (F *Matrix) Add(A, B mat.Matrix) {
	F.Dense.Add(dense(A), dense(B))
}

// Sub puts A-B in F. A or B can be F.
func (F *Matrix) Sub(A, B mat.Matrix) {
	F.Dense.Sub(dense(A), dense(B))
}

// MulElem puts in F the element-wise product of A and B. A or B can be F.
func (F *Matrix) MulElem(A, B mat.Matrix) {
	F.Dense.MulElem(dense(A), dense(B))
}

// Stack puts A stacked over B in F
func (F *Matrix) Stack(A, B *Matrix) {
	f := F.RawMatrix()
	ar := A.NVecs()
	br := B.NVecs()
	if F.NVecs() < ar+br {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		mat.Row(f.Data[i*f.Stride:i*f.Stride+3], i, A.Dense)
	}
	for i := ar; i < ar+br; i++ {
		mat.Row(f.Data[i*f.Stride:i*f.Stride+3], i-ar, B.Dense)
	}
}

// Det returns the determinant of a 3x3 matrix. Panics if the matrix is not 3x3.
func Det(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return (A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) - A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) + A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2)))
}

// Inverse puts in F the inverse of the 3x3 matrix A. Returns error if A is singular.
func (F *Matrix) Inverse(A *Matrix) error {
	if err := F.Dense.Inverse(A.Dense); err != nil {
		return Error{"Can't invert matrix: " + err.Error(), []string{"Inverse"}, true}
	}
	return nil
}

//Errors

type errorInt interface {
	Error() string
	Critical() bool
	Decorate(string) []string
}

// Error is the error type for v3. It fullfills the chem.Error interface.
type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return fmt.Sprintf("atomchain/v3: %s", err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix      = PanicMsg("atomchain/v3: A v3.Matrix should have 3 columns")
	ErrNoCrossProduct    = PanicMsg("atomchain/v3: Invalid matrix for cross product")
	ErrNotEnoughElements = PanicMsg("atomchain/v3: not enough elements in Matrix")
	ErrDeterminant       = PanicMsg("atomchain/v3: Determinants are only available for 3x3 matrices")
	ErrShape             = PanicMsg("atomchain/v3: Dimension mismatch")
	ErrIndexOutOfRange   = PanicMsg("atomchain/v3: index out of range")
)
