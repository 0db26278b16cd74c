/*
 * graph.go, part of gocrystal.
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

package vff

import (
	"math"

	crystal "github.com/rmera/gocrystal"
	v3 "github.com/rmera/gocrystal/v3"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

//Graph returns the connectivity of the tree as a gonum weighted undirected graph. Node IDs are the center indexes,
//and the weight of each edge is the bond length, in units of the structure scale. Periodic images are not
//distinguished, so bonds between the same pair of centers (and bonds of a center to its own images) give at most
//one edge.
func (T *Tree) Graph() *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for _, c := range T.Centers {
		g.AddNode(simple.Node(c.Index))
	}
	for _, c := range T.Centers {
		for _, b := range c.Bonds {
			if b.Center == c.Index || g.HasEdgeBetween(int64(c.Index), int64(b.Center)) {
				continue
			}
			w := math.Sqrt(v3.Norm2(T.BondVector(c, b)))
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(c.Index), simple.Node(b.Center), w))
		}
	}
	return g
}

//Components returns the connected components of the tree, each one as a list of center indexes.
func (T *Tree) Components() [][]int {
	cc := topo.ConnectedComponents(T.Graph())
	ret := make([][]int, len(cc))
	for i, nodes := range cc {
		ret[i] = ids(nodes)
	}
	return ret
}

func ids(nodes []graph.Node) []int {
	r := make([]int, len(nodes))
	for i, n := range nodes {
		r[i] = int(n.ID())
	}
	return r
}

//Symmetric returns an error unless each bond of the tree is seen from both of its ends, i.e. for each
//bond from i to j with translation t, there is a bond from j to i with translation -t.
func (T *Tree) Symmetric() error {
	for _, c := range T.Centers {
		for _, b := range c.Bonds {
			found := false
			for _, r := range T.Centers[b.Center].Bonds {
				if r.Center == c.Index && v3.IsZero(v3.Add(r.Translation, b.Translation), 1e-8) {
					found = true
					break
				}
			}
			if !found {
				return crystal.NewError(crystal.Input, "Tree.Symmetric", "bond %d->%d %v not seen from %d", c.Index, b.Center, b.Translation, b.Center)
			}
		}
	}
	return nil
}
