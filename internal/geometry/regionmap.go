package geometry

// BuildRegionMap labels every passable cell with the id of its 4-connected
// region. Blocked cells are labelled -1 and never join a region.
func BuildRegionMap(width, height int, blocked []bool) RegionMap {
	total := width * height
	tileRegionIDs := make([]int, total)
	for i := range tileRegionIDs {
		tileRegionIDs[i] = -1
	}
	if len(blocked) < total {
		return RegionMap{TileRegionIDs: tileRegionIDs}
	}

	regionID := 0
	qx := make([]int, 0, total)
	qy := make([]int, 0, total)

	visit := func(nx, ny int) {
		nidx := ny*width + nx
		if blocked[nidx] || tileRegionIDs[nidx] != -1 {
			return
		}
		tileRegionIDs[nidx] = regionID
		qx = append(qx, nx)
		qy = append(qy, ny)
	}

	for y := range height {
		for x := range width {
			idx := y*width + x
			if blocked[idx] || tileRegionIDs[idx] != -1 {
				continue
			}
			tileRegionIDs[idx] = regionID
			qx = qx[:0]
			qy = qy[:0]
			qx = append(qx, x)
			qy = append(qy, y)

			for len(qx) > 0 {
				cx := qx[0]
				cy := qy[0]
				qx = qx[1:]
				qy = qy[1:]

				if cx > 0 {
					visit(cx-1, cy)
				}
				if cx < width-1 {
					visit(cx+1, cy)
				}
				if cy > 0 {
					visit(cx, cy-1)
				}
				if cy < height-1 {
					visit(cx, cy+1)
				}
			}
			regionID++
		}
	}

	return RegionMap{TileRegionIDs: tileRegionIDs, RegionsCount: regionID}
}
