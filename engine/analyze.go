package engine

import "goarena/types"

// Cluster is a maximal 4-connected run of points sharing one color. Empty
// regions are clusters too, with Color None.
type Cluster struct {
	Color types.Color
	Count int
	// Neighbors counts boundary edges by the color on the far side.
	Neighbors map[types.Color]int
}

// Liberties returns the number of boundary edges that lead to empty points.
func (c Cluster) Liberties() int {
	return c.Neighbors[types.None]
}

// Analysis is the result of Analyze. IDs[row][column] indexes Clusters.
type Analysis struct {
	IDs      [][]int
	Clusters []Cluster
}

// ClusterAt returns the cluster containing p.
func (a Analysis) ClusterAt(p types.Point) Cluster {
	return a.Clusters[a.IDs[p.Row][p.Column]]
}

// Points returns every point belonging to cluster id.
func (a Analysis) Points(id int) []types.Point {
	var points []types.Point
	for row := range a.IDs {
		for column, cid := range a.IDs[row] {
			if cid == id {
				points = append(points, types.Point{Row: row, Column: column})
			}
		}
	}
	return points
}

// Analyze flood-fills board into clusters. Ids are assigned in row-major
// scan order and are only meaningful for this board.
func Analyze(board types.Board) Analysis {
	size := board.Size()
	ids := make([][]int, size)
	for i := range ids {
		ids[i] = make([]int, size)
		for j := range ids[i] {
			ids[i][j] = -1
		}
	}

	var clusters []Cluster
	var queue []types.Point
	for row := 0; row < size; row++ {
		for column := 0; column < size; column++ {
			if ids[row][column] != -1 {
				continue
			}
			id := len(clusters)
			cluster := Cluster{
				Color: board[row][column],
				Count: 1,
				Neighbors: map[types.Color]int{
					types.None:  0,
					types.Black: 0,
					types.White: 0,
				},
			}
			ids[row][column] = id
			queue = append(queue[:0], types.Point{Row: row, Column: column})
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				for _, n := range board.Neighbors(current) {
					if ids[n.Row][n.Column] == id {
						continue
					}
					c := board.At(n)
					if c == cluster.Color {
						ids[n.Row][n.Column] = id
						cluster.Count++
						queue = append(queue, n)
					} else {
						cluster.Neighbors[c]++
					}
				}
			}
			clusters = append(clusters, cluster)
		}
	}
	return Analysis{IDs: ids, Clusters: clusters}
}

// owner returns the color that alone borders an empty cluster, or None.
func (c Cluster) owner() types.Color {
	if c.Color != types.None {
		return types.None
	}
	black, white := c.Neighbors[types.Black] > 0, c.Neighbors[types.White] > 0
	switch {
	case black && !white:
		return types.Black
	case white && !black:
		return types.White
	}
	return types.None
}
