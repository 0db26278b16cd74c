/*
 * histo_test.go, part of gocrystal.
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

package histo

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHisto(Te *testing.T) {
	div := Dividers(0, 8, 4)
	require.Equal(Te, []float64{0, 2, 4, 6, 8}, div)
	raw := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 44, -1}
	D := NewData(div, raw, 3)
	require.Equal(Te, []float64{6, 4, 4, 3}, D.View())
	require.Equal(Te, 17, D.Total())
	require.Equal(Te, 3, D.ID())
	E := NewData(div, nil)
	require.Equal(Te, -1, E.ID())
	E.AddData(1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 1, 9)
	require.Equal(Te, 18, E.Total())
	require.Equal(Te, D.View(), E.View())
	require.InDelta(Te, (6*1+4*3+4*5+3*7)/17.0, E.Mean(), 1e-12)
	D.Normalize()
	require.True(Te, D.Normalized())
	require.InDelta(Te, 6.0/17, D.View()[0], 1e-12)
	D.Normalize()
	require.InDelta(Te, 6.0/17, D.View()[0], 1e-12)
	//Adding to a normalized histogram keeps it normalized over the new total.
	D.AddData(0.5)
	require.True(Te, D.Normalized())
	require.Equal(Te, 18, D.Total())
	require.InDelta(Te, 7.0/18, D.View()[0], 1e-12)
	require.Equal(Te, div, D.CopyDividers())
	fmt.Println(D)
}

func TestHistoIO(Te *testing.T) {
	M := NewMatrix(2, 3, Dividers(0, 8, 4))
	M.Fill()
	raw := []float64{1, 6, 3, 2, 4, 5, 7, 6, 3.5, 3, 5, 1, 1, 0, 0, 5, 8, 1, 2, 3, 44, 3, 7, 3, 1, 3, 5, 32, 1}
	M.NewHisto(0, 1, nil, raw)
	M.AddData(1, 2, 2.5)
	require.Error(Te, M.Check(2, 0))
	require.Equal(Te, 26, M.View(0, 1).Total())
	require.Equal(Te, []float64{0, 1, 0, 0}, M.View(1, 2).View())
	require.Equal(Te, 5, M.View(1, 2).ID())
	j, err := json.Marshal(M)
	require.NoError(Te, err)
	M2 := new(Matrix)
	require.NoError(Te, json.Unmarshal(j, M2))
	require.Equal(Te, M, M2)
	require.Error(Te, json.Unmarshal([]byte(`{"rows":2,"cols":2,"data":[]}`), M2))
	fmt.Println(M2)
}
