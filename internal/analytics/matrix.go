package analytics

import (
	"sort"

	"tradetaper-analytics/internal/domain"
)

// Matrix cross-tabulates trades over two dimensions. Rows and columns are
// the distinct observed values for each dimension, "unknown"-substituted;
// the shape is data-driven, not a fixed enum. Only (row, column) pairs
// with at least one trade produce a cell; empty pairs are omitted so the
// representation stays sparse.
func Matrix(trades []*domain.BacktestTrade, rowDim, colDim domain.Dimension) *domain.PerformanceMatrix {
	type pair struct {
		row string
		col string
	}

	cells := make(map[pair][]*domain.BacktestTrade)
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})

	for _, t := range trades {
		r := domain.DimensionValue(t, rowDim)
		c := domain.DimensionValue(t, colDim)
		rowSet[r] = struct{}{}
		colSet[c] = struct{}{}
		key := pair{row: r, col: c}
		cells[key] = append(cells[key], t)
	}

	matrix := &domain.PerformanceMatrix{
		RowDimension:    rowDim,
		ColumnDimension: colDim,
		Rows:            sortedKeys(rowSet),
		Columns:         sortedKeys(colSet),
	}

	for _, r := range matrix.Rows {
		for _, c := range matrix.Columns {
			group, ok := cells[pair{row: r, col: c}]
			if !ok {
				continue
			}
			matrix.Cells = append(matrix.Cells, domain.MatrixCell{
				Row:    r,
				Column: c,
				Stats:  Calculate(group),
			})
		}
	}

	return matrix
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
