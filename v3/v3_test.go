/*
 * v3_test.go, part of atomchain.
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

package v3

import (
	"fmt"
	"math"
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2, 3, 4}); err == nil {
		Te.Error("NewMatrix should fail with a slice not divisible by 3")
	}
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 2 {
		Te.Errorf("Expected 2 vectors, got %d", A.NVecs())
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Error("Changes in a view should be seen in the original matrix")
	}
	fmt.Println("View\n", A, "\n", View)
}

func TestSomeVecs(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18}
	A, err := NewMatrix(a)
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	err = B.SomeVecsSafe(A, cind)
	if err != nil {
		Te.Error(err)
	}
	if B.At(2, 2) != 18 || B.At(0, 0) != 4 {
		Te.Errorf("SomeVecs gave the wrong vectors: %v", B)
	}
	B.Set(1, 1, 55)
	A.SetVecs(B, cind)
	if A.At(3, 1) != 55 {
		Te.Errorf("SetVecs didn't set the vector: %v", A)
	}
	C := Zeros(2)
	if err := C.SomeVecsSafe(A, cind); err == nil {
		Te.Error("SomeVecsSafe should fail with mismatched dimensions")
	}
}

func TestVecOps(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 0, 0, 0, 1, 0})
	Row, _ := NewMatrix([]float64{10, 20, 30})
	A.AddVec(A, Row)
	if A.At(1, 2) != 30 || A.At(0, 0) != 11 {
		Te.Errorf("AddVec failed: %v", A)
	}
	A.SubVec(A, Row)
	if A.At(1, 1) != 1 || A.At(1, 2) != 0 {
		Te.Errorf("SubVec failed: %v", A)
	}
	x := A.VecView(0)
	y := A.VecView(1)
	z := Zeros(1)
	z.Cross(x, y)
	if z.At(0, 2) != 1 || z.At(0, 0) != 0 {
		Te.Errorf("Cross product of x and y should be z, got %v", z)
	}
	if x.Dot(y) != 0 {
		Te.Error("x and y should be orthogonal")
	}
	u, _ := NewMatrix([]float64{3, 0, 4})
	if math.Abs(u.Norm()-5) > appzero {
		Te.Errorf("Norm should be 5, got %f", u.Norm())
	}
	u.Unit(u)
	if math.Abs(u.Norm()-1) > 1e-12 {
		Te.Errorf("Unit vector has norm %f", u.Norm())
	}
}

func TestMaxVecNorm(Te *testing.T) {
	F, _ := NewMatrix([]float64{0.1, 0, 0, 0, 0.3, 0.4, 0, 0, -0.2})
	if m := F.MaxVecNorm(); math.Abs(m-0.5) > 1e-12 {
		Te.Errorf("Expected fmax 0.5, got %f", m)
	}
	F.SwapVecs(0, 1)
	if math.Abs(F.VecNorm(0)-0.5) > 1e-12 {
		Te.Errorf("SwapVecs failed: %v", F)
	}
}

func TestDetInverse(Te *testing.T) {
	A, _ := NewMatrix([]float64{2, 0, 0, 0, 3, 0, 1, 0, 4})
	if d := Det(A); math.Abs(d-24) > 1e-12 {
		Te.Errorf("Determinant should be 24, got %f", d)
	}
	I := Zeros(3)
	if err := I.Inverse(A); err != nil {
		Te.Fatal(err)
	}
	P := Zeros(3)
	P.Mul(A, I)
	E := Eye()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(P.At(i, j)-E.At(i, j)) > 1e-12 {
				Te.Errorf("A*A^-1 is not the identity: %v", P)
			}
		}
	}
	S := Zeros(5)
	S.Stack(A, P.View(0, 2))
	if S.At(3, 0) != 1 || S.At(2, 2) != 4 {
		Te.Errorf("Stack failed: %v", S)
	}
}

func TestInPlace(Te *testing.T) {
	m, _ := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	n, _ := NewMatrix([]float64{1, 1, 1, 1, 1, 1})
	m.Scale(2, m)
	if m.At(1, 2) != 12 {
		Te.Errorf("Scale failed: %v", m)
	}
	m.Add(m, n)
	if m.At(0, 0) != 3 || m.At(1, 2) != 13 {
		Te.Errorf("Add failed: %v", m)
	}
	m.Sub(m, n)
	m.Sub(n, m)
	if m.At(0, 1) != -3 {
		Te.Errorf("Sub failed: %v", m)
	}
	m.MulElem(m, m)
	if m.At(0, 1) != 9 || m.At(1, 2) != 121 {
		Te.Errorf("MulElem failed: %v", m)
	}
	m.Add(m, m)
	if m.At(0, 0) != 2 {
		Te.Errorf("Add with itself failed: %v", m)
	}
	v := m.VecView(1)
	v.Scale(0.5, v)
	if m.At(1, 0) != 49 {
		Te.Errorf("Scaling a view failed: %v", m)
	}
}
