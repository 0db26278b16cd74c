/*
 * clusters.go, part of gocrystal.
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

package mixed

import (
	v3 "github.com/rmera/gocrystal/v3"
)

//containedTolerance is the largest squared distance at which two positions are the same.
const containedTolerance = 1e-8

//Cluster is a class of equivalent clusters of a cluster expansion, with its effective cluster interaction.
//Each figure is one of the equivalent clusters, given by the positions of its sites.
type Cluster struct {
	Name    string         `json:"name"`
	ECI     float64        `json:"eci"`
	Figures [][][3]float64 `json:"figures,omitempty"`
}

//Sites returns the number of sites of the clusters in the class, 0 if it has no figures.
func (C *Cluster) Sites() int {
	if len(C.Figures) == 0 {
		return 0
	}
	return len(C.Figures[0])
}

//RemoveContained returns the classes of clusters not already described by a separable function
//expanded over positions. A class of two or more sites is dropped when one of its figures has
//all its sites, other than the origin, among positions. The ECIs of the remaining classes are kept,
//and clusters is not modified.
func RemoveContained(positions [][3]float64, clusters []*Cluster) []*Cluster {
	ret := make([]*Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c.Sites() < 2 || !containedIn(positions, c) {
			ret = append(ret, c)
		}
	}
	return ret
}

func containedIn(positions [][3]float64, c *Cluster) bool {
figures:
	for _, f := range c.Figures {
		for _, p := range f {
			if v3.Norm2(p) <= containedTolerance {
				continue
			}
			if !hasPosition(positions, p) {
				continue figures
			}
		}
		return true
	}
	return false
}

func hasPosition(positions [][3]float64, p [3]float64) bool {
	for _, q := range positions {
		if v3.Norm2(v3.Sub(q, p)) <= containedTolerance {
			return true
		}
	}
	return false
}
